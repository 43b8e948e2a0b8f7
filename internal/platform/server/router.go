package server

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ogurasousui/hr-records-api/internal/adapters/http/handler"
	"github.com/ogurasousui/hr-records-api/internal/adapters/http/middleware"
)

// Resource は一覧・作成・取得・更新・削除を提供する HTTP リソースです。
type Resource interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// Handlers はルーターに登録するハンドラ一式です。
type Handlers struct {
	Auth        *handler.AuthHandler
	Health      *handler.HealthHandler
	Statuses    Resource
	Positions   Resource
	Departments Resource
	Employees   Resource
	// Media はローカルのオブジェクトストアを配信するハンドラです。nil の場合は登録しません。
	Media     http.Handler
	MediaPath string
}

// RouterOptions はルーターの共通設定です。
type RouterOptions struct {
	Logger             *zap.Logger
	Tokens             middleware.TokenValidator
	CORSAllowedOrigins []string
}

// NewRouter は API のルーティングを構築します。リソースは複数形と単数形の両方のパスで公開し、末尾スラッシュの有無を問いません。
func NewRouter(opts RouterOptions, h Handlers) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.HandleMethodNotAllowed = true
	router.Use(middleware.RequestID(), middleware.AccessLog(logger), middleware.Recovery(logger))
	if len(opts.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  opts.CORSAllowedOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders: []string{handler.NextPageTokenHeader, middleware.RequestIDHeader},
		}))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	})

	publicPaths := []string{"/healthz", "/login"}
	mount := ""
	if h.Media != nil {
		mount = "/" + strings.Trim(h.MediaPath, "/")
	}

	// 認証が必要なパスでは、メソッドの判定より先にトークンを検証します。
	requireToken := func(*gin.Context) {}
	if opts.Tokens != nil {
		requireToken = middleware.TokenAuth(opts.Tokens)
	}
	router.NoMethod(func(c *gin.Context) {
		path := strings.TrimSuffix(c.Request.URL.Path, "/")
		if slices.Contains(publicPaths, path) || (mount != "" && strings.HasPrefix(path+"/", mount+"/")) {
			return
		}
		requireToken(c)
	}, func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": fmt.Sprintf("Method \"%s\" not allowed.", c.Request.Method)})
	})

	if h.Health != nil {
		router.GET("/healthz", h.Health.Check)
	}
	if h.Auth != nil {
		withOptionalSlash("/login", func(path string) {
			router.POST(path, h.Auth.Login)
		})
	}
	if h.Media != nil {
		router.GET(mount+"/*filepath", gin.WrapH(http.StripPrefix(mount, h.Media)))
	}

	api := router.Group("/")
	if opts.Tokens != nil {
		api.Use(middleware.TokenAuth(opts.Tokens))
	}
	registerResource(api, h.Statuses, "statuses", "status")
	registerResource(api, h.Positions, "positions", "position")
	registerResource(api, h.Departments, "departments", "department")
	registerResource(api, h.Employees, "employees", "employee")

	return router
}

func registerResource(rg *gin.RouterGroup, r Resource, names ...string) {
	if r == nil {
		return
	}
	for _, name := range names {
		withOptionalSlash("/"+name, func(path string) {
			rg.GET(path, r.List)
			rg.POST(path, r.Create)
		})
		withOptionalSlash("/"+name+"/:id", func(path string) {
			rg.GET(path, r.Get)
			rg.PUT(path, r.Update)
			rg.PATCH(path, r.Update)
			rg.DELETE(path, r.Delete)
		})
	}
}

func withOptionalSlash(path string, register func(path string)) {
	register(path)
	register(path + "/")
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ogurasousui/hr-records-api/internal/core/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct {
	tokens map[string]*auth.Principal
	err    error
}

func (s stubValidator) Validate(_ context.Context, key string) (*auth.Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.tokens[key]; ok {
		return p, nil
	}
	return nil, auth.ErrInvalidToken
}

func newAuthRouter(v TokenValidator) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), TokenAuth(v))
	router.GET("/me", func(c *gin.Context) {
		p, _ := GetPrincipal(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"username": p.Username})
	})
	return router
}

func TestTokenAuth(t *testing.T) {
	validator := stubValidator{tokens: map[string]*auth.Principal{
		"abc": {UserID: 1, Username: "admin"},
	}}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantDetail string
	}{
		{"token scheme", "Token abc", http.StatusOK, ""},
		{"bearer scheme", "Bearer abc", http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, msgNotAuthenticated},
		{"unknown scheme", "Basic abc", http.StatusUnauthorized, msgNotAuthenticated},
		{"no key", "Token", http.StatusUnauthorized, msgInvalidHeader},
		{"key with spaces", "Token a b", http.StatusUnauthorized, msgHeaderSpaces},
		{"unknown key", "Token nope", http.StatusUnauthorized, msgInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			newAuthRouter(validator).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantDetail == "" {
				assert.JSONEq(t, `{"username":"admin"}`, w.Body.String())
				return
			}
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantDetail, body["detail"])
			assert.Equal(t, "Token", w.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestTokenAuth_ValidatorFailure(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	newAuthRouter(stubValidator{err: errors.New("db down")}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	router.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(RequestIDHeader))
}

func TestAccessLogAndRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	router := gin.New()
	router.Use(RequestID(), AccessLog(logger), Recovery(logger))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
	})
	router.GET("/panic", func(c *gin.Context) { panic("unexpected") })

	for _, path := range []string{"/ok", "/fail", "/panic"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "request failed", entries[1].Message)
	assert.Equal(t, "panic recovered", entries[2].Message)
	assert.Equal(t, int64(http.StatusInternalServerError), entries[3].ContextMap()["status"])
}

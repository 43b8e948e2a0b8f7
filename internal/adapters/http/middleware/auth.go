package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ogurasousui/hr-records-api/internal/core/auth"
)

const (
	msgNotAuthenticated = "Authentication credentials were not provided."
	msgInvalidToken     = "Invalid token."
	msgInvalidHeader    = "Invalid token header. No credentials provided."
	msgHeaderSpaces     = "Invalid token header. Token string should not contain spaces."
)

// TokenValidator はトークンを検証して主体を返します。
type TokenValidator interface {
	Validate(ctx context.Context, key string) (*auth.Principal, error)
}

// TokenAuth は Authorization ヘッダーの `Token <key>` または `Bearer <key>` を検証します。
// 失敗した場合は 401 と {"detail": ...} を返して後続の処理を中断します。
func TokenAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			unauthorized(c, msgNotAuthenticated)
			return
		}

		parts := strings.Fields(header)
		if !strings.EqualFold(parts[0], "Token") && !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(c, msgNotAuthenticated)
			return
		}
		switch len(parts) {
		case 1:
			unauthorized(c, msgInvalidHeader)
			return
		case 2:
		default:
			unauthorized(c, msgHeaderSpaces)
			return
		}

		principal, err := validator.Validate(c.Request.Context(), parts[1])
		if errors.Is(err, auth.ErrInvalidToken) {
			unauthorized(c, msgInvalidToken)
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
			return
		}

		c.Set(string(ctxKeyPrincipal), principal)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxKeyPrincipal, principal))
		c.Next()
	}
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Token")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}

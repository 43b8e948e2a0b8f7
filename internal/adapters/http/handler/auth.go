package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ogurasousui/hr-records-api/internal/core/auth"
)

// LoginResponse はログイン成功時のレスポンスです。
type LoginResponse struct {
	Token string `json:"token"`
}

// AuthHandler はログインの HTTP ハンドラです。
type AuthHandler struct {
	svc auth.UseCase
}

// NewAuthHandler は AuthHandler を生成します。
func NewAuthHandler(svc auth.UseCase) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login はユーザー名とパスワードを検証してトークンを返します。
func (h *AuthHandler) Login(c *gin.Context) {
	p, err := readPayload(c, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	errs := validation.Errors{}
	in := auth.LoginInput{
		Username: p.text("username", errs),
		Password: p.text("password", errs),
	}
	if err := errs.Filter(); err != nil {
		respondError(c, err)
		return
	}

	token, err := h.svc.Login(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token.Key})
}

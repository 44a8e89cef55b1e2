package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mestermind/backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	user, err := ah.authService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, gin.H{"user": user})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	accessToken, refreshToken, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(ah.authService.GetAccessTTL().Seconds()),
	})
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	accessToken, refreshToken, err := ah.authService.RefreshUser(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.LogoutUser(c.Request.Context()); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

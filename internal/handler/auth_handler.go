package handler

import (
	"net/http"
	"strconv"

	"estatehub/internal/apperr"
	"estatehub/internal/middleware"
	"estatehub/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc *service.AuthService
	log *zap.Logger
}

func NewAuthHandler(svc *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.NewFieldError("body", "The request body must be a JSON object."))
		return
	}
	u, pair, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": u, "token": pair})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.NewFieldError("body", "The request body must be a JSON object."))
		return
	}
	u, pair, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": u, "token": pair})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.NewFieldError("refresh_token", "The refresh token field is required."))
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": pair})
}

// Logout is stateless: clients discard their tokens.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.log.Info("User logged out", zap.Uint("user_id", middleware.GetUserID(c)))
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// Me handles GET /user.
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req service.EmailInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.NewFieldError("email", "The email field is required."))
		return
	}
	if err := h.svc.ForgotPassword(c.Request.Context(), req); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reset link sent to your email"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.NewFieldError("body", "The request body must be a JSON object."))
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// VerifyEmail handles POST /verify-email/:id/:hash.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, h.log, service.ErrInvalidVerification)
		return
	}
	already, err := h.svc.VerifyEmail(c.Request.Context(), uint(id), c.Param("hash"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if already {
		c.JSON(http.StatusOK, gin.H{"message": "Email already verified"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email has been verified"})
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req service.EmailInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.NewFieldError("email", "The email field is required."))
		return
	}
	already, err := h.svc.ResendVerification(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if already {
		c.JSON(http.StatusOK, gin.H{"message": "Email already verified"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification link sent"})
}

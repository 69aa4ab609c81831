package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"outreach-console/internal/service"
	"outreach-console/internal/session"
)

// AuthHandler mantiene dependencias para los endpoints de autenticación.
type AuthHandler struct {
	logger  *zap.Logger
	auth    *service.AuthService
	notices *NoticeBoard
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, auth *service.AuthService, notices *NoticeBoard) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		auth:    auth,
		notices: notices,
	}
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "redirect": session.LandingPath})
}

// Signup maneja POST /auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signup request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeAuthError(c, "signup", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "redirect": session.LandingPath})
}

// Logout maneja POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.auth.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// LoginView maneja GET /login y entrega el aviso de bloqueo pendiente, si lo hay.
func (h *AuthHandler) LoginView(c *gin.Context) {
	r, ok := h.notices.Consume()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"path": session.LoginPath, "state": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": session.LoginPath, "state": r.Notice})
}

func (h *AuthHandler) writeAuthError(c *gin.Context, op string, err error) {
	var blocked *service.BlockedError
	switch {
	case errors.As(err, &blocked):
		c.JSON(http.StatusForbidden, gin.H{"error": "account blocked", "state": blocked.Notice})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not " + op})
	}
}

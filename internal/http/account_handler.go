package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"outreach-console/internal/backend"
	"outreach-console/internal/service"
	"outreach-console/internal/session"
)

// AccountHandler expone las vistas protegidas y las mutaciones de cuenta.
type AccountHandler struct {
	logger   *zap.Logger
	store    *session.Store
	accounts *service.AccountService
	notices  *NoticeBoard
}

func NewAccountHandler(logger *zap.Logger, store *session.Store, accounts *service.AccountService, notices *NoticeBoard) *AccountHandler {
	return &AccountHandler{
		logger:   logger,
		store:    store,
		accounts: accounts,
		notices:  notices,
	}
}

// Dashboard maneja GET /dashboard.
func (h *AccountHandler) Dashboard(c *gin.Context) {
	user, ok := h.store.User()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": "dashboard", "user": user})
}

// Admin maneja GET /admin.
func (h *AccountHandler) Admin(c *gin.Context) {
	user, _ := h.store.User()
	c.JSON(http.StatusOK, gin.H{"view": "admin", "user": user})
}

// Sync maneja POST /session/sync.
func (h *AccountHandler) Sync(c *gin.Context) {
	result := h.store.SyncUser(c.Request.Context())
	if result == session.SyncBlocked {
		r, _ := h.notices.Peek()
		c.JSON(http.StatusForbidden, gin.H{"error": "account blocked", "redirect": session.LoginPath, "state": r.Notice})
		return
	}
	user, _ := h.store.User()
	c.JSON(http.StatusOK, gin.H{"result": result.String(), "user": user})
}

// CompleteOnboarding maneja POST /onboarding/complete. El body es opcional.
func (h *AccountHandler) CompleteOnboarding(c *gin.Context) {
	var req struct {
		Credits *int `json:"credits"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("invalid onboarding request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}

	user, err := h.accounts.CompleteOnboarding(c.Request.Context(), req.Credits)
	if err != nil {
		h.writeAccountError(c, "complete onboarding", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateBrandProfile maneja PUT /profile/brand.
func (h *AccountHandler) UpdateBrandProfile(c *gin.Context) {
	var req backend.BrandProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid brand profile request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.accounts.UpdateBrandProfile(c.Request.Context(), req)
	if err != nil {
		h.writeAccountError(c, "update brand profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangeSubscription maneja POST /subscription.
func (h *AccountHandler) ChangeSubscription(c *gin.Context) {
	var req backend.SubscriptionChange
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid subscription request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.accounts.ChangeSubscription(c.Request.Context(), req)
	if err != nil {
		h.writeAccountError(c, "change subscription", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteAccount maneja DELETE /account.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	if err := h.accounts.DeleteAccount(c.Request.Context()); err != nil {
		h.writeAccountError(c, "delete account", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) writeAccountError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrAccountBlocked):
		r, _ := h.notices.Peek()
		c.JSON(http.StatusForbidden, gin.H{"error": "account blocked", "redirect": session.LoginPath, "state": r.Notice})
	case errors.Is(err, service.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not " + op})
	}
}

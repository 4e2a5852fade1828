package handler

import (
	"context"
	"errors"
	"net/http"

	"estatehub/internal/apperr"
	"estatehub/internal/domain"
	"estatehub/internal/middleware"
	"estatehub/internal/models"
	"estatehub/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type listingModerationStore interface {
	ListListings(ctx context.Context, status string, limit, offset int) ([]models.Listing, int64, error)
	ListingStatusCounts(ctx context.Context) (map[string]int64, error)
}

type listingStatusWriter interface {
	UpdateStatus(ctx context.Context, id uint, status string) (*models.Listing, error)
}

type AdminHandler struct {
	adminRepo   listingModerationStore
	listingRepo listingStatusWriter
	log         *zap.Logger
}

func NewAdminHandler(adminRepo listingModerationStore, listingRepo listingStatusWriter, log *zap.Logger) *AdminHandler {
	return &AdminHandler{adminRepo: adminRepo, listingRepo: listingRepo, log: log}
}

// Dashboard handles GET /admin/dashboard: listing counts per status.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	counts, err := h.adminRepo.ListingStatusCounts(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": counts})
}

// ListListings handles GET /admin/listings?status=&page=.
func (h *AdminHandler) ListListings(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", domain.ListingStatusPending, domain.ListingStatusActive, domain.ListingStatusRejected:
	default:
		respondError(c, h.log, apperr.NewFieldError("status", "The selected status is invalid."))
		return
	}
	page := service.ParsePage(c.Query("page"))
	per := domain.ListingPerPage
	list, total, err := h.adminRepo.ListListings(c.Request.Context(), status, per, service.Offset(page, per))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paged(c, service.NewPage(list, total, per, page))
}

// Approve handles PUT /admin/listings/:id/approve.
func (h *AdminHandler) Approve(c *gin.Context) {
	h.setStatus(c, domain.ListingStatusActive, "Listing approved successfully")
}

// Reject handles PUT /admin/listings/:id/reject.
func (h *AdminHandler) Reject(c *gin.Context) {
	h.setStatus(c, domain.ListingStatusRejected, "Listing rejected successfully")
}

func (h *AdminHandler) setStatus(c *gin.Context, status, message string) {
	id, err := idParam(c, "Listing")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	l, err := h.listingRepo.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = apperr.NewNotFoundError("Listing", id)
		}
		respondError(c, h.log, err)
		return
	}
	h.log.Info("Listing moderated", zap.Uint("listing_id", id), zap.String("status", status), zap.Uint("admin_id", middleware.GetUserID(c)))
	c.JSON(http.StatusOK, gin.H{"message": message, "data": l})
}

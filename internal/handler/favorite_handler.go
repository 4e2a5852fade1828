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

type favoriteStore interface {
	Add(ctx context.Context, userID, listingID uint) error
	Remove(ctx context.Context, userID, listingID uint) (bool, error)
	IsFavorite(ctx context.Context, userID, listingID uint) (bool, error)
	ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Favorite, int64, error)
}

type listingReader interface {
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
}

type FavoriteHandler struct {
	repo     favoriteStore
	listings listingReader
	log      *zap.Logger
}

func NewFavoriteHandler(repo favoriteStore, listings listingReader, log *zap.Logger) *FavoriteHandler {
	return &FavoriteHandler{repo: repo, listings: listings, log: log}
}

// List handles GET /favorites.
func (h *FavoriteHandler) List(c *gin.Context) {
	page := service.ParsePage(c.Query("page"))
	per := domain.ListingPerPage
	list, total, err := h.repo.ListByUserID(c.Request.Context(), middleware.GetUserID(c), per, service.Offset(page, per))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paged(c, service.NewPage(list, total, per, page))
}

// Toggle handles POST /favorites/:id: adds an active listing, or removes it when already saved.
func (h *FavoriteHandler) Toggle(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)
	id, err := idParam(c, "Listing")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok, err := h.repo.IsFavorite(ctx, userID, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if ok {
		if _, err := h.repo.Remove(ctx, userID, id); err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Listing removed from favorites", "is_favorite": false})
		return
	}
	l, err := h.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = apperr.NewNotFoundError("Listing", id)
		}
		respondError(c, h.log, err)
		return
	}
	if l.Status != domain.ListingStatusActive {
		respondError(c, h.log, apperr.NewNotFoundError("Listing", id))
		return
	}
	if err := h.repo.Add(ctx, userID, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Listing added to favorites", "is_favorite": true})
}

// Remove handles DELETE /favorites/:id.
func (h *FavoriteHandler) Remove(c *gin.Context) {
	id, err := idParam(c, "Listing")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	removed, err := h.repo.Remove(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !removed {
		respondError(c, h.log, apperr.NewNotFoundError("Favorite", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing removed from favorites"})
}

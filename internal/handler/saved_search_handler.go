package handler

import (
	"net/http"

	"estatehub/internal/middleware"
	"estatehub/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const savedSearchResource = "Saved search"

type SavedSearchHandler struct {
	svc *service.SavedSearchService
	log *zap.Logger
}

func NewSavedSearchHandler(svc *service.SavedSearchService, log *zap.Logger) *SavedSearchHandler {
	return &SavedSearchHandler{svc: svc, log: log}
}

// List handles GET /saved-searches.
func (h *SavedSearchHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), middleware.GetUserID(c), service.ParsePage(c.Query("page")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paged(c, page)
}

// Create handles POST /saved-searches.
func (h *SavedSearchHandler) Create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	rec, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), service.DecodeSavedSearchInput(body))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Search saved successfully", "data": rec})
}

// Show handles GET /saved-searches/:id.
func (h *SavedSearchHandler) Show(c *gin.Context) {
	id, err := idParam(c, savedSearchResource)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	rec, err := h.svc.Get(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

// Update handles PUT and PATCH /saved-searches/:id.
func (h *SavedSearchHandler) Update(c *gin.Context) {
	id, err := idParam(c, savedSearchResource)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	rec, err := h.svc.Update(c.Request.Context(), middleware.GetUserID(c), id, service.DecodeSavedSearchInput(body))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Saved search updated successfully", "data": rec})
}

// Delete handles DELETE /saved-searches/:id.
func (h *SavedSearchHandler) Delete(c *gin.Context) {
	id, err := idParam(c, savedSearchResource)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Saved search deleted successfully"})
}

// Execute handles GET /saved-searches/:id/execute.
func (h *SavedSearchHandler) Execute(c *gin.Context) {
	id, err := idParam(c, savedSearchResource)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	page, err := h.svc.Execute(c.Request.Context(), middleware.GetUserID(c), id, service.ParsePage(c.Query("page")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paged(c, page)
}

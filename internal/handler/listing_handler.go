package handler

import (
	"estatehub/internal/search"
	"estatehub/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ListingHandler struct {
	svc *service.SavedSearchService
	log *zap.Logger
}

func NewListingHandler(svc *service.SavedSearchService, log *zap.Logger) *ListingHandler {
	return &ListingHandler{svc: svc, log: log}
}

// criteriaKeys are the query parameters read by Search; everything else is ignored.
var criteriaKeys = []string{
	search.KeyCity, search.KeyState, search.KeyPropertyType, search.KeyListingType,
	search.KeyBedrooms, search.KeyBathrooms, search.KeyIsFurnished,
	search.KeyMinPrice, search.KeyMaxPrice, search.KeyMinArea, search.KeyMaxArea,
	search.KeySortBy, search.KeySortOrder,
}

// Search handles GET /listings/search with criteria taken from the query string.
func (h *ListingHandler) Search(c *gin.Context) {
	doc := map[string]any{}
	for _, k := range criteriaKeys {
		if v, ok := c.GetQuery(k); ok && v != "" {
			doc[k] = v
		}
	}
	page, err := h.svc.Search(c.Request.Context(), search.FromMap(doc), service.ParsePage(c.Query("page")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paged(c, page)
}

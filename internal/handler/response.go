package handler

import (
	"net/http"
	"strconv"

	"estatehub/internal/apperr"
	"estatehub/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes the error envelope for err. Validation failures carry per-field
// messages; 5xx bodies never include the cause.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	appErr := apperr.From(err)
	_ = c.Error(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Error("Request error", zap.String("path", c.FullPath()), zap.Error(appErr.Err))
	}
	if appErr.Fields != nil {
		c.AbortWithStatusJSON(appErr.StatusCode, gin.H{"errors": appErr.Fields})
		return
	}
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{"message": appErr.Message})
}

// paged renders a page as {data, meta}.
func paged[T any](c *gin.Context, p service.Page[T]) {
	c.JSON(http.StatusOK, gin.H{
		"data": p.Items,
		"meta": gin.H{
			"total":        p.Total,
			"per_page":     p.PerPage,
			"current_page": p.CurrentPage,
			"last_page":    p.LastPage,
		},
	})
}

// idParam parses :id. Anything but a positive integer is reported as not found.
func idParam(c *gin.Context, resource string) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NewNotFoundError(resource, raw)
	}
	return uint(id), nil
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sinkandika/fyzy-web/internal/config"
	"github.com/sinkandika/fyzy-web/internal/services"
)

// EarningsHandler handles REST requests for the earnings report.
type EarningsHandler struct {
	earningsService services.IEarningsService
	cfg             *config.Config
}

// NewEarningsHandler creates a new EarningsHandler.
func NewEarningsHandler(earningsService services.IEarningsService, cfg *config.Config) *EarningsHandler {
	return &EarningsHandler{
		earningsService: earningsService,
		cfg:             cfg,
	}
}

// Summary handles GET /v1/earnings. The optional limit query parameter
// truncates the feed; totals always cover all records.
func (h *EarningsHandler) Summary(c *gin.Context) {
	limit := h.cfg.EarningsFeedLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	summary, err := h.earningsService.Summary(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute earnings"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

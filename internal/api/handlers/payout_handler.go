package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sinkandika/fyzy-web/internal/services"
)

// PayoutHandler handles REST requests for withdrawals.
type PayoutHandler struct {
	payoutService services.IPayoutService
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(payoutService services.IPayoutService) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService}
}

type createPayoutRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
	Email  string  `json:"email"`
}

// Create handles POST /v1/payouts
func (h *PayoutHandler) Create(c *gin.Context) {
	var req createPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	payout, err := h.payoutService.Create(c.Request.Context(), req.Amount, req.Method, req.Email)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPayout) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payout"})
		}
		return
	}
	c.JSON(http.StatusCreated, payout)
}

// List handles GET /v1/payouts
func (h *PayoutHandler) List(c *gin.Context) {
	payouts, err := h.payoutService.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list payouts"})
		return
	}
	c.JSON(http.StatusOK, payouts)
}

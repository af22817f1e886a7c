package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sinkandika/fyzy-web/internal/services"
)

// CustomerHandler handles REST requests for the customer directory.
type CustomerHandler struct {
	customerService services.ICustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerService services.ICustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// List handles GET /v1/customers
func (h *CustomerHandler) List(c *gin.Context) {
	customers, err := h.customerService.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list customers"})
		return
	}
	c.JSON(http.StatusOK, customers)
}

// Get handles GET /v1/customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer ID format"})
		return
	}

	customer, err := h.customerService.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve customer"})
		}
		return
	}
	c.JSON(http.StatusOK, customer)
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sinkandika/fyzy-web/internal/billing"
	"github.com/sinkandika/fyzy-web/internal/models"
	"github.com/sinkandika/fyzy-web/internal/services"
)

// InvoiceHandler handles REST requests for invoices.
type InvoiceHandler struct {
	invoiceService services.IInvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService services.IInvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

type partyRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type lineItemRequest struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Rate        string `json:"rate"`
}

// createInvoiceRequest is the invoice creation form. Dates are
// "2006-01-02"; an empty date means unset. Money fields are the raw form
// strings so the lenient parsing rules apply server-side.
type createInvoiceRequest struct {
	InvoiceNumber string            `json:"invoice_number" binding:"required"`
	PONumber      string            `json:"po_number"`
	IssueDate     string            `json:"issue_date"`
	DueDate       string            `json:"due_date"`
	PaymentTerms  string            `json:"payment_terms"`
	Notes         string            `json:"notes"`
	Items         []lineItemRequest `json:"items"`
	Tax           string            `json:"tax"`
	Discount      string            `json:"discount"`
	Shipping      string            `json:"shipping"`
	AmountPaid    string            `json:"amount_paid"`
	Customer      partyRequest      `json:"customer"`
	User          partyRequest      `json:"user"`
}

func parseFormDate(value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// Create handles POST /v1/invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	issuedAt, ok := parseFormDate(req.IssueDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue_date, expected YYYY-MM-DD"})
		return
	}
	dueAt, ok := parseFormDate(req.DueDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid due_date, expected YYYY-MM-DD"})
		return
	}

	input := services.InvoiceInput{
		InvoiceNumber: req.InvoiceNumber,
		PONumber:      req.PONumber,
		IssuedAt:      issuedAt,
		DueAt:         dueAt,
		PaymentTerms:  req.PaymentTerms,
		Notes:         req.Notes,
		Adjustments: billing.Adjustments{
			Tax:        req.Tax,
			Discount:   req.Discount,
			Shipping:   req.Shipping,
			AmountPaid: req.AmountPaid,
		},
		Customer: services.PartyInput(req.Customer),
		User:     services.PartyInput(req.User),
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, toModelItem(it))
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInvoice) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invoice"})
		}
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

// List handles GET /v1/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	rows, err := h.invoiceService.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list invoices"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Counter handles GET /v1/invoices/counter
func (h *InvoiceHandler) Counter(c *gin.Context) {
	counter, err := h.invoiceService.CountByStatus(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count invoices"})
		return
	}
	c.JSON(http.StatusOK, counter)
}

// GetView handles GET /v1/invoices/:id
func (h *InvoiceHandler) GetView(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID format"})
		return
	}

	view, err := h.invoiceService.GetViewData(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve invoice"})
		}
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetEdit handles GET /v1/invoices/:id/edit
func (h *InvoiceHandler) GetEdit(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID format"})
		return
	}

	snap, err := h.invoiceService.GetEditData(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve invoice"})
		}
		return
	}
	c.JSON(http.StatusOK, snap)
}

type updateInvoiceRequest struct {
	Snapshot billing.Snapshot `json:"snapshot"`
	// Edits are applied to the snapshot in order before saving, so a
	// client can send the loaded snapshot plus its field changes.
	Edits []editRequest `json:"edits"`
}

type editRequest struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// Update handles PUT /v1/invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID format"})
		return
	}

	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	snap := req.Snapshot
	snap.Invoice.ID = id.Hex()
	now := time.Now().UTC()
	for _, edit := range req.Edits {
		snap, err = billing.ApplyEdit(snap, edit.Path, edit.Value, now)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), snap)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		case errors.Is(err, services.ErrInvalidInvoice):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update invoice"})
		}
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// Delete handles DELETE /v1/invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID format"})
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete invoice"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func toModelItem(it lineItemRequest) models.InvoiceItem {
	return models.InvoiceItem{
		Description: it.Description,
		Quantity:    it.Quantity,
		Rate:        it.Rate,
	}
}

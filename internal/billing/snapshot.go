package billing

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sinkandika/fyzy-web/internal/models"
)

// Party is the editable view of a customer or biller record.
type Party struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// InvoiceMeta is the non-money invoice header fields.
type InvoiceMeta struct {
	ID            string     `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	PONumber      string     `json:"po_number"`
	IssuedAt      *time.Time `json:"issued_at"`
	DueAt         *time.Time `json:"due"`
	PaymentTerms  string     `json:"payment_terms"`
	Notes         string     `json:"notes"`
}

// Snapshot is an immutable view of an invoice edit session. Editing goes
// through ApplyEdit, which returns a fresh snapshot with totals and
// status re-derived, so derived fields can never go stale.
type Snapshot struct {
	Invoice     InvoiceMeta          `json:"invoice"`
	Customer    Party                `json:"customer"`
	User        Party                `json:"user"`
	Items       []models.InvoiceItem `json:"items"`
	Adjustments Adjustments          `json:"adjustments"`
	Totals      models.InvoiceTotals `json:"totals"`
	Status      models.InvoiceStatus `json:"status"`
}

// ApplyEdit returns a copy of snap with one field changed and all
// derived state recomputed under the edit totals policy. Recognised
// paths:
//
//	invoice.number, invoice.po, invoice.issued, invoice.due,
//	invoice.terms, invoice.notes
//	customer.name, customer.email, customer.phone, customer.address
//	user.name, user.email, user.phone, user.address
//	items.add, items.remove (value = index)
//	items.<index>.description, items.<index>.quantity, items.<index>.rate
//	totals.tax, totals.discount, totals.shipping, totals.paid
//
// Dates are "2006-01-02"; an empty value clears invoice.due. An unknown
// path or out-of-range item index is an error and snap is unchanged.
func ApplyEdit(snap Snapshot, path, value string, now time.Time) (Snapshot, error) {
	next := snap
	next.Items = make([]models.InvoiceItem, len(snap.Items))
	copy(next.Items, snap.Items)

	switch path {
	case "invoice.number":
		next.Invoice.InvoiceNumber = value
	case "invoice.po":
		next.Invoice.PONumber = value
	case "invoice.issued":
		t, err := parseEditDate(value)
		if err != nil {
			return snap, err
		}
		next.Invoice.IssuedAt = t
	case "invoice.due":
		t, err := parseEditDate(value)
		if err != nil {
			return snap, err
		}
		next.Invoice.DueAt = t
	case "invoice.terms":
		next.Invoice.PaymentTerms = value
	case "invoice.notes":
		next.Invoice.Notes = value

	case "customer.name":
		next.Customer.Name = value
	case "customer.email":
		next.Customer.Email = value
	case "customer.phone":
		next.Customer.Phone = value
	case "customer.address":
		next.Customer.Address = value

	case "user.name":
		next.User.Name = value
	case "user.email":
		next.User.Email = value
	case "user.phone":
		next.User.Phone = value
	case "user.address":
		next.User.Address = value

	case "items.add":
		// New rows start at quantity 1, matching the form default.
		next.Items = append(next.Items, models.InvoiceItem{Quantity: "1"})
	case "items.remove":
		i, err := strconv.Atoi(value)
		if err != nil || i < 0 || i >= len(next.Items) {
			return snap, fmt.Errorf("invalid item index %q", value)
		}
		next.Items = append(next.Items[:i], next.Items[i+1:]...)

	case "totals.tax":
		next.Adjustments.Tax = value
	case "totals.discount":
		next.Adjustments.Discount = value
	case "totals.shipping":
		next.Adjustments.Shipping = value
	case "totals.paid":
		next.Adjustments.AmountPaid = value

	default:
		field, i, ok := splitItemPath(path)
		if !ok {
			return snap, fmt.Errorf("unknown edit path %q", path)
		}
		if i < 0 || i >= len(next.Items) {
			return snap, fmt.Errorf("item index %d out of range", i)
		}
		switch field {
		case "description":
			next.Items[i].Description = value
		case "quantity":
			next.Items[i].Quantity = value
		case "rate":
			next.Items[i].Rate = value
		default:
			return snap, fmt.Errorf("unknown item field %q", field)
		}
	}

	next.Items, next.Totals = ComputeTotals(next.Items, next.Adjustments, EditTotalsPolicy)
	next.Status = ClassifyStatus(next.Totals.AmountPaid, next.Totals.GrandTotal, next.Invoice.DueAt, now)
	return next, nil
}

// splitItemPath parses "items.<index>.<field>".
func splitItemPath(path string) (field string, index int, ok bool) {
	var i int
	n, err := fmt.Sscanf(path, "items.%d.%s", &i, &field)
	if err != nil || n != 2 {
		return "", 0, false
	}
	return field, i, true
}

func parseEditDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return &t, nil
}

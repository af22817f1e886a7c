package billing

import (
	"github.com/sinkandika/fyzy-web/internal/models"
)

// TotalsPolicy selects how the adjustment fields combine into the grand
// total. The two policies are intentionally different and must not be
// unified: historical documents were written under both.
type TotalsPolicy int

const (
	// CreationTotalsPolicy treats tax and discount as percentages of
	// the subtotal and rounds the grand total to cents.
	CreationTotalsPolicy TotalsPolicy = iota
	// EditTotalsPolicy treats tax and discount as flat currency
	// amounts and leaves the grand total unrounded.
	EditTotalsPolicy
)

// Adjustments carries the raw adjustment fields of an invoice form.
// Semantics of Tax and Discount depend on the policy in effect.
type Adjustments struct {
	Tax        string
	Discount   string
	Shipping   string
	AmountPaid string
}

// ComputeTotals recomputes every line amount as Round2(quantity*rate)
// and derives the money snapshot under the given policy. Stored line
// amounts are never trusted; the inputs of record are quantity and rate.
func ComputeTotals(items []models.InvoiceItem, adj Adjustments, policy TotalsPolicy) ([]models.InvoiceItem, models.InvoiceTotals) {
	out := make([]models.InvoiceItem, len(items))
	subTotal := 0.0
	for i, it := range items {
		it.Amount = Round2(ParseAmount(it.Quantity) * ParseAmount(it.Rate))
		out[i] = it
		subTotal += it.Amount
	}

	tax := ParseAmount(adj.Tax)
	discount := ParseAmount(adj.Discount)
	shipping := ParseAmount(adj.Shipping)
	paid := ParseAmount(adj.AmountPaid)

	t := models.InvoiceTotals{
		SubTotal:   subTotal,
		Tax:        tax,
		Discount:   discount,
		Shipping:   shipping,
		AmountPaid: paid,
	}

	switch policy {
	case EditTotalsPolicy:
		t.GrandTotal = subTotal - discount + tax + shipping
		t.BalanceDue = t.GrandTotal - paid
	default:
		taxAmount := subTotal * tax / 100
		discountAmount := subTotal * discount / 100
		t.GrandTotal = Round2(subTotal + taxAmount - discountAmount + shipping)
		t.BalanceDue = Round2(t.GrandTotal - paid)
	}
	return out, t
}

package billing

import (
	"sort"
	"strings"
	"time"

	"github.com/sinkandika/fyzy-web/internal/models"
)

// UnknownCustomerName labels income entries whose customer document is
// missing or unnamed.
const UnknownCustomerName = "Unknown Customer"

// EarningsEntry is one row of the earnings feed: positive amounts are
// collected payments, negative amounts are payouts.
type EarningsEntry struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
}

// EarningsSummary is the aggregate view of money collected and withdrawn.
type EarningsSummary struct {
	TotalIncome   float64         `json:"total_income"`
	TotalWithdraw float64         `json:"total_withdraw"`
	TotalBalance  float64         `json:"total_balance"`
	Feed          []EarningsEntry `json:"feed"`
}

// AggregateEarnings folds invoices and payouts into an EarningsSummary.
// Only positive paid amounts and positive payout amounts count toward
// the respective totals, but every payout appears in the feed. The feed
// is sorted newest first; ties keep input order.
func AggregateEarnings(invoices []models.Invoice, payouts []models.Payout, customerNames map[string]string) EarningsSummary {
	var s EarningsSummary
	s.Feed = make([]EarningsEntry, 0, len(invoices)+len(payouts))

	for _, inv := range invoices {
		if inv.AmountPaid <= 0 {
			continue
		}
		s.TotalIncome += inv.AmountPaid
		name := strings.TrimSpace(customerNames[inv.CustomerID.Hex()])
		if name == "" {
			name = UnknownCustomerName
		}
		date := inv.IssuedAt
		if inv.LastPaymentAt != nil {
			date = *inv.LastPaymentAt
		}
		s.Feed = append(s.Feed, EarningsEntry{
			ID:          inv.ID.Hex(),
			Description: name + " - " + inv.InvoiceNumber,
			Date:        date,
			Amount:      inv.AmountPaid,
		})
	}

	for _, p := range payouts {
		if p.Amount > 0 {
			s.TotalWithdraw += p.Amount
		}
		s.Feed = append(s.Feed, EarningsEntry{
			ID:          p.ID.Hex(),
			Description: p.Method,
			Date:        p.CreatedAt,
			Amount:      -p.Amount,
		})
	}

	s.TotalBalance = s.TotalIncome - s.TotalWithdraw

	sort.SliceStable(s.Feed, func(i, j int) bool {
		return s.Feed[i].Date.After(s.Feed[j].Date)
	})
	return s
}

// InvoiceCounter is the per-status invoice tally shown on the dashboard.
type InvoiceCounter struct {
	Total   int `json:"total"`
	Paid    int `json:"paid"`
	Unpaid  int `json:"unpaid"`
	Overdue int `json:"overdue"`
	Partial int `json:"partial"`
}

// CountByStatus tallies invoices per status. Matching is
// case-insensitive; Overpaid and unrecognised statuses count only
// toward the total.
func CountByStatus(invoices []models.Invoice) InvoiceCounter {
	var c InvoiceCounter
	for _, inv := range invoices {
		c.Total++
		switch strings.ToLower(string(inv.Status)) {
		case "paid":
			c.Paid++
		case "unpaid":
			c.Unpaid++
		case "overdue":
			c.Overdue++
		case "partial":
			c.Partial++
		}
	}
	return c
}

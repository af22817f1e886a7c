package billing

import (
	"time"

	"github.com/sinkandika/fyzy-web/internal/models"
)

// ClassifyStatus derives the payment status of an invoice. Both amounts
// are rounded to cents before comparison so float noise from upstream
// arithmetic cannot flip a Paid invoice to Partial.
//
// Precedence: Overpaid > Paid > Partial > Unpaid, then an Overdue
// override when the due date has passed and the invoice is not settled.
// A nil dueAt means the invoice can never become Overdue.
func ClassifyStatus(paid, total float64, dueAt *time.Time, now time.Time) models.InvoiceStatus {
	paid = Round2(paid)
	total = Round2(total)

	status := models.StatusUnpaid
	switch {
	case paid > total && total > 0:
		status = models.StatusOverpaid
	case paid == total && total > 0:
		status = models.StatusPaid
	case paid > 0 && paid < total:
		status = models.StatusPartial
	}

	if status != models.StatusPaid && status != models.StatusOverpaid &&
		dueAt != nil && now.After(*dueAt) {
		return models.StatusOverdue
	}
	return status
}

// EffectiveDueDate resolves the due date used for classification at
// creation time: the stated due date, else the issue date, else now.
func EffectiveDueDate(dueAt, issuedAt *time.Time, now time.Time) time.Time {
	if dueAt != nil {
		return *dueAt
	}
	if issuedAt != nil {
		return *issuedAt
	}
	return now
}

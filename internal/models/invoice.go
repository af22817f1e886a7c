package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InvoiceStatus is the payment classification of an invoice. Values are
// stored verbatim, so renaming a constant is a data migration.
type InvoiceStatus string

const (
	StatusUnpaid   InvoiceStatus = "Unpaid"
	StatusPartial  InvoiceStatus = "Partial"
	StatusPaid     InvoiceStatus = "Paid"
	StatusOverpaid InvoiceStatus = "Overpaid"
	StatusOverdue  InvoiceStatus = "Overdue"
)

// InvoiceItem is a single billable line. Quantity and Rate keep the raw
// user-entered strings; Amount is the computed quantity*rate, rounded to
// cents.
type InvoiceItem struct {
	Description string  `bson:"item_description" json:"item_description"`
	Quantity    string  `bson:"item_quantity" json:"item_quantity"`
	Rate        string  `bson:"item_rate" json:"item_rate"`
	Amount      float64 `bson:"item_amount" json:"item_amount"`
}

// InvoiceTotals is the derived money snapshot of an invoice.
type InvoiceTotals struct {
	SubTotal   float64 `bson:"cost_sub_total" json:"cost_sub_total"`
	Tax        float64 `bson:"cost_tax" json:"cost_tax"`
	Discount   float64 `bson:"cost_discount" json:"cost_discount"`
	Shipping   float64 `bson:"cost_shipping" json:"cost_shipping"`
	AmountPaid float64 `bson:"cost_amount_paid" json:"cost_amount_paid"`
	GrandTotal float64 `bson:"cost_grand_total" json:"cost_grand_total"`
	BalanceDue float64 `bson:"cost_balance_due" json:"cost_balance_due"`
}

// Invoice is a bill issued to a customer. CustomerID and UserID reference
// the customer and biller documents captured at creation time.
type Invoice struct {
	Base            `bson:",inline"`
	CustomerID      primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	InvoiceNumber   string             `bson:"invoice_number" json:"invoice_number"`
	PONumber        string             `bson:"po_number,omitempty" json:"po_number,omitempty"`
	IssuedAt        time.Time          `bson:"issued_at" json:"issued_at"`
	DueAt           *time.Time         `bson:"due,omitempty" json:"due,omitempty"` // Null means no due date, never overdue
	PaymentTerms    string             `bson:"payment_terms,omitempty" json:"payment_terms,omitempty"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Status          InvoiceStatus      `bson:"status" json:"status"`
	Items           []InvoiceItem      `bson:"items" json:"items"`
	InvoiceTotals   `bson:",inline"`
	LastPaymentAt   *time.Time `bson:"last_payment_at,omitempty" json:"last_payment_at,omitempty"` // Null until a payment is recorded
	OverdueNotified bool       `bson:"overdue_notified" json:"overdue_notified"`                   // Flag to prevent multiple overdue emails
	CreatedAt       time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updated_at"`
}

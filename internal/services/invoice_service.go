package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sinkandika/fyzy-web/internal/billing"
	"github.com/sinkandika/fyzy-web/internal/db"
	"github.com/sinkandika/fyzy-web/internal/models"
)

// ErrInvalidInvoice is returned when invoice input fails validation.
var ErrInvalidInvoice = errors.New("invalid invoice input")

const (
	invoicesCollection  = "invoices"
	customersCollection = "customers"
	billersCollection   = "users"
)

// PartyInput is the bill-to / bill-from form data for invoice creation.
type PartyInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// InvoiceInput is the invoice creation form data. Money fields stay as the
// raw entered strings; parsing and rounding happen in the billing package.
type InvoiceInput struct {
	InvoiceNumber string
	PONumber      string
	IssuedAt      *time.Time
	DueAt         *time.Time
	PaymentTerms  string
	Notes         string
	Items         []models.InvoiceItem
	Adjustments   billing.Adjustments
	Customer      PartyInput
	User          PartyInput
}

// InvoiceRow is one line of the invoice list view.
type InvoiceRow struct {
	ID            primitive.ObjectID   `json:"id"`
	InvoiceNumber string               `json:"invoice_number"`
	CustomerName  string               `json:"customer_name"`
	DueAt         *time.Time           `json:"due,omitempty"`
	Amount        float64              `json:"amount"`
	AmountDue     float64              `json:"amount_due"`
	Status        models.InvoiceStatus `json:"status"`
}

// InvoiceViewData is the full read model for the invoice detail view.
type InvoiceViewData struct {
	Invoice  models.Invoice  `json:"invoice"`
	Customer models.Customer `json:"customer"`
	User     models.User     `json:"user"`
}

// IInvoiceService defines the interface for invoice operations.
type IInvoiceService interface {
	Create(ctx context.Context, input InvoiceInput) (*models.Invoice, error)
	GetEditData(ctx context.Context, id primitive.ObjectID) (*billing.Snapshot, error)
	GetViewData(ctx context.Context, id primitive.ObjectID) (*InvoiceViewData, error)
	Update(ctx context.Context, snap billing.Snapshot) (*models.Invoice, error)
	List(ctx context.Context) ([]InvoiceRow, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByStatus(ctx context.Context) (billing.InvoiceCounter, error)
	SweepOverdue(ctx context.Context, now time.Time) ([]models.Invoice, error)
	MarkOverdueNotified(ctx context.Context, id primitive.ObjectID) error
}

type invoiceService struct {
	db *mongo.Database
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(db *mongo.Database) IInvoiceService {
	return &invoiceService{db: db}
}

// Create validates the input, persists fresh customer and biller documents
// and inserts the invoice with derived totals and status. Totals use the
// percentage-based creation rules; a missing due date falls back to the
// issue date for both storage and overdue evaluation.
func (s *invoiceService) Create(ctx context.Context, input InvoiceInput) (*models.Invoice, error) {
	if err := validateInvoiceInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	issuedAt := now
	if input.IssuedAt != nil {
		issuedAt = *input.IssuedAt
	}
	dueAt := input.DueAt
	if dueAt == nil {
		// Stored due date defaults to the issue date when left blank.
		d := issuedAt
		dueAt = &d
	}

	customer := &models.Customer{
		Base:      models.NewBase(),
		Name:      strings.TrimSpace(input.Customer.Name),
		Email:     strings.TrimSpace(input.Customer.Email),
		Phone:     strings.TrimSpace(input.Customer.Phone),
		Address:   strings.TrimSpace(input.Customer.Address),
		CreatedAt: now,
	}
	if _, err := s.db.Collection(customersCollection).InsertOne(ctx, customer); err != nil {
		return nil, fmt.Errorf("error creating customer: %w", err)
	}

	biller := &models.User{
		Base:      models.NewBase(),
		Name:      strings.TrimSpace(input.User.Name),
		Email:     strings.TrimSpace(input.User.Email),
		Phone:     strings.TrimSpace(input.User.Phone),
		Address:   strings.TrimSpace(input.User.Address),
		CreatedAt: now,
	}
	if _, err := s.db.Collection(billersCollection).InsertOne(ctx, biller); err != nil {
		return nil, fmt.Errorf("error creating biller: %w", err)
	}

	items, totals := billing.ComputeTotals(input.Items, input.Adjustments, billing.CreationTotalsPolicy)
	effectiveDue := billing.EffectiveDueDate(input.DueAt, &issuedAt, now)
	status := billing.ClassifyStatus(totals.AmountPaid, totals.GrandTotal, &effectiveDue, now)

	invoice := &models.Invoice{
		Base:          models.NewBase(),
		CustomerID:    customer.ID,
		UserID:        biller.ID,
		InvoiceNumber: strings.TrimSpace(input.InvoiceNumber),
		PONumber:      strings.TrimSpace(input.PONumber),
		IssuedAt:      issuedAt,
		DueAt:         dueAt,
		PaymentTerms:  input.PaymentTerms,
		Notes:         input.Notes,
		Status:        status,
		Items:         items,
		InvoiceTotals: totals,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if totals.AmountPaid > 0 {
		invoice.LastPaymentAt = &now
	}

	err := db.Try(func() error {
		_, insertErr := s.db.Collection(invoicesCollection).InsertOne(ctx, invoice)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("error creating invoice %s: %w", invoice.InvoiceNumber, err)
	}
	return invoice, nil
}

func validateInvoiceInput(input InvoiceInput) error {
	if strings.TrimSpace(input.InvoiceNumber) == "" {
		return fmt.Errorf("%w: invoice number is required", ErrInvalidInvoice)
	}
	if len(input.Items) == 0 {
		return fmt.Errorf("%w: at least one line item is required", ErrInvalidInvoice)
	}
	for i, it := range input.Items {
		if strings.TrimSpace(it.Description) == "" {
			return fmt.Errorf("%w: item %d has no description", ErrInvalidInvoice, i)
		}
	}
	if strings.TrimSpace(input.Customer.Name) == "" {
		return fmt.Errorf("%w: customer name is required", ErrInvalidInvoice)
	}
	return nil
}

// GetEditData loads the invoice plus its customer and biller as an edit
// snapshot. A missing referenced document is surfaced as mongo.ErrNoDocuments.
func (s *invoiceService) GetEditData(ctx context.Context, id primitive.ObjectID) (*billing.Snapshot, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	var customer models.Customer
	err = s.db.Collection(customersCollection).FindOne(ctx, bson.M{"_id": invoice.CustomerID}).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding customer %s: %w", invoice.CustomerID.Hex(), err)
	}

	var biller models.User
	err = s.db.Collection(billersCollection).FindOne(ctx, bson.M{"_id": invoice.UserID}).Decode(&biller)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding biller %s: %w", invoice.UserID.Hex(), err)
	}

	snap := billing.Snapshot{
		Invoice: billing.InvoiceMeta{
			ID:            invoice.ID.Hex(),
			InvoiceNumber: invoice.InvoiceNumber,
			PONumber:      invoice.PONumber,
			IssuedAt:      &invoice.IssuedAt,
			DueAt:         invoice.DueAt,
			PaymentTerms:  invoice.PaymentTerms,
			Notes:         invoice.Notes,
		},
		Customer: billing.Party{
			ID:      customer.ID.Hex(),
			Name:    customer.Name,
			Email:   customer.Email,
			Phone:   customer.Phone,
			Address: customer.Address,
		},
		User: billing.Party{
			ID:      biller.ID.Hex(),
			Name:    biller.Name,
			Email:   biller.Email,
			Phone:   biller.Phone,
			Address: biller.Address,
		},
		Items: invoice.Items,
		Adjustments: billing.Adjustments{
			Tax:        formatAmount(invoice.Tax),
			Discount:   formatAmount(invoice.Discount),
			Shipping:   formatAmount(invoice.Shipping),
			AmountPaid: formatAmount(invoice.AmountPaid),
		},
		Totals: invoice.InvoiceTotals,
		Status: invoice.Status,
	}
	return &snap, nil
}

func formatAmount(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// GetViewData loads the invoice plus its customer and biller for display.
func (s *invoiceService) GetViewData(ctx context.Context, id primitive.ObjectID) (*InvoiceViewData, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &InvoiceViewData{Invoice: *invoice}
	err = s.db.Collection(customersCollection).FindOne(ctx, bson.M{"_id": invoice.CustomerID}).Decode(&view.Customer)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error finding customer %s: %w", invoice.CustomerID.Hex(), err)
	}
	err = s.db.Collection(billersCollection).FindOne(ctx, bson.M{"_id": invoice.UserID}).Decode(&view.User)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error finding biller %s: %w", invoice.UserID.Hex(), err)
	}
	return view, nil
}

// Update persists an edited snapshot. Totals and status are re-derived
// under the flat-additive edit rules before writing; the invoice, customer
// and biller documents commit in a single transaction so a failure leaves
// no partial state. LastPaymentAt is bumped only when the paid amount
// actually changed.
func (s *invoiceService) Update(ctx context.Context, snap billing.Snapshot) (*models.Invoice, error) {
	invoiceID, err := primitive.ObjectIDFromHex(snap.Invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad invoice id %q", ErrInvalidInvoice, snap.Invoice.ID)
	}
	customerID, err := primitive.ObjectIDFromHex(snap.Customer.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad customer id %q", ErrInvalidInvoice, snap.Customer.ID)
	}
	billerID, err := primitive.ObjectIDFromHex(snap.User.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad biller id %q", ErrInvalidInvoice, snap.User.ID)
	}

	existing, err := s.findInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	items, totals := billing.ComputeTotals(snap.Items, snap.Adjustments, billing.EditTotalsPolicy)
	// Edits do not fall back to the issue date: a cleared due date means
	// the invoice cannot be overdue.
	status := billing.ClassifyStatus(totals.AmountPaid, totals.GrandTotal, snap.Invoice.DueAt, now)

	updated := *existing
	updated.InvoiceNumber = strings.TrimSpace(snap.Invoice.InvoiceNumber)
	updated.PONumber = strings.TrimSpace(snap.Invoice.PONumber)
	if snap.Invoice.IssuedAt != nil {
		updated.IssuedAt = *snap.Invoice.IssuedAt
	}
	updated.DueAt = snap.Invoice.DueAt
	updated.PaymentTerms = snap.Invoice.PaymentTerms
	updated.Notes = snap.Invoice.Notes
	updated.Items = items
	updated.InvoiceTotals = totals
	updated.Status = status
	updated.UpdatedAt = now
	if billing.Round2(totals.AmountPaid) != billing.Round2(existing.AmountPaid) {
		updated.LastPaymentAt = &now
	}

	err = db.WithTransaction(ctx, s.db.Client(), func(sc mongo.SessionContext) error {
		res, err := s.db.Collection(invoicesCollection).ReplaceOne(sc, bson.M{"_id": invoiceID}, &updated)
		if err != nil {
			return fmt.Errorf("error updating invoice %s: %w", invoiceID.Hex(), err)
		}
		if res.MatchedCount == 0 {
			return mongo.ErrNoDocuments
		}

		custUpdate := bson.M{"$set": bson.M{
			"name":    strings.TrimSpace(snap.Customer.Name),
			"email":   strings.TrimSpace(snap.Customer.Email),
			"phone":   strings.TrimSpace(snap.Customer.Phone),
			"address": strings.TrimSpace(snap.Customer.Address),
		}}
		if _, err := s.db.Collection(customersCollection).UpdateByID(sc, customerID, custUpdate); err != nil {
			return fmt.Errorf("error updating customer %s: %w", customerID.Hex(), err)
		}

		billerUpdate := bson.M{"$set": bson.M{
			"name":    strings.TrimSpace(snap.User.Name),
			"email":   strings.TrimSpace(snap.User.Email),
			"phone":   strings.TrimSpace(snap.User.Phone),
			"address": strings.TrimSpace(snap.User.Address),
		}}
		if _, err := s.db.Collection(billersCollection).UpdateByID(sc, billerID, billerUpdate); err != nil {
			return fmt.Errorf("error updating biller %s: %w", billerID.Hex(), err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, err
	}
	return &updated, nil
}

// List returns the invoice table rows, joining customer names with a
// single customers scan.
func (s *invoiceService) List(ctx context.Context) ([]InvoiceRow, error) {
	names, err := s.customerNames(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := s.db.Collection(invoicesCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing invoices: %w", err)
	}
	var invoices []models.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("error decoding invoices: %w", err)
	}

	rows := make([]InvoiceRow, 0, len(invoices))
	for _, inv := range invoices {
		status := inv.Status
		if status == "" {
			status = models.StatusUnpaid
		}
		rows = append(rows, InvoiceRow{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			CustomerName:  names[inv.CustomerID.Hex()],
			DueAt:         inv.DueAt,
			Amount:        inv.GrandTotal,
			AmountDue:     inv.BalanceDue,
			Status:        status,
		})
	}
	return rows, nil
}

func (s *invoiceService) customerNames(ctx context.Context) (map[string]string, error) {
	cursor, err := s.db.Collection(customersCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing customers: %w", err)
	}
	var customers []models.Customer
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, fmt.Errorf("error decoding customers: %w", err)
	}
	names := make(map[string]string, len(customers))
	for _, c := range customers {
		names[c.ID.Hex()] = c.Name
	}
	return names, nil
}

// Delete removes an invoice permanently. The customer and biller documents
// are kept: earnings history may still reference them.
func (s *invoiceService) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.Collection(invoicesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting invoice %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CountByStatus tallies all invoices into the dashboard counter.
func (s *invoiceService) CountByStatus(ctx context.Context) (billing.InvoiceCounter, error) {
	cursor, err := s.db.Collection(invoicesCollection).Find(ctx, bson.M{})
	if err != nil {
		return billing.InvoiceCounter{}, fmt.Errorf("error listing invoices: %w", err)
	}
	var invoices []models.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return billing.InvoiceCounter{}, fmt.Errorf("error decoding invoices: %w", err)
	}
	return billing.CountByStatus(invoices), nil
}

// SweepOverdue flips Unpaid and Partial invoices whose due date has passed
// to Overdue, and returns the ones not yet notified about.
func (s *invoiceService) SweepOverdue(ctx context.Context, now time.Time) ([]models.Invoice, error) {
	collection := s.db.Collection(invoicesCollection)
	filter := bson.M{
		"status": bson.M{"$in": []models.InvoiceStatus{models.StatusUnpaid, models.StatusPartial}},
		"due":    bson.M{"$ne": nil, "$lt": now},
	}

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error finding overdue invoices: %w", err)
	}
	var overdue []models.Invoice
	if err := cursor.All(ctx, &overdue); err != nil {
		return nil, fmt.Errorf("error decoding overdue invoices: %w", err)
	}
	if len(overdue) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, len(overdue))
	for i, inv := range overdue {
		ids[i] = inv.ID
	}
	update := bson.M{"$set": bson.M{"status": models.StatusOverdue, "updated_at": now}}
	if _, err := collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, update); err != nil {
		return nil, fmt.Errorf("error marking invoices overdue: %w", err)
	}

	var toNotify []models.Invoice
	for _, inv := range overdue {
		if !inv.OverdueNotified {
			inv.Status = models.StatusOverdue
			toNotify = append(toNotify, inv)
		}
	}
	return toNotify, nil
}

// MarkOverdueNotified records that the overdue email for an invoice went out.
func (s *invoiceService) MarkOverdueNotified(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.Collection(invoicesCollection).UpdateByID(ctx, id, bson.M{"$set": bson.M{"overdue_notified": true}})
	if err != nil {
		return fmt.Errorf("error marking invoice %s notified: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *invoiceService) findInvoice(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.Collection(invoicesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&invoice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding invoice %s: %w", id.Hex(), err)
	}
	return &invoice, nil
}

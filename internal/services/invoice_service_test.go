package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sinkandika/fyzy-web/internal/billing"
	"github.com/sinkandika/fyzy-web/internal/models"
	"github.com/sinkandika/fyzy-web/internal/utils"
)

func testInvoiceInput(number string) InvoiceInput {
	return InvoiceInput{
		InvoiceNumber: number,
		Items: []models.InvoiceItem{
			{Description: "Design work", Quantity: "4", Rate: "20"},
			{Description: "Hosting", Quantity: "2", Rate: "10"},
		},
		Adjustments: billing.Adjustments{Tax: "10", Discount: "5", Shipping: "20"},
		Customer:    PartyInput{Name: "Acme Pty Ltd", Email: "billing@acme.test"},
		User:        PartyInput{Name: "Studio One", Email: "studio@one.test"},
	}
}

func TestInvoiceService_Create(t *testing.T) {
	db := utils.SetupTestDB(t, "testdb_invoice_service_create", "invoices", "customers", "users")
	svc := NewInvoiceService(db)
	ctx := context.Background()

	inv, err := svc.Create(ctx, testInvoiceInput("INV-001"))
	require.NoError(t, err)

	assert.Equal(t, 100.0, inv.SubTotal)
	assert.Equal(t, 125.0, inv.GrandTotal)
	assert.Equal(t, 125.0, inv.BalanceDue)
	assert.Equal(t, models.StatusUnpaid, inv.Status)
	assert.Nil(t, inv.LastPaymentAt)
	assert.False(t, inv.CustomerID.IsZero())
	assert.False(t, inv.UserID.IsZero())
	// Blank due date defaults to the issue date.
	require.NotNil(t, inv.DueAt)
	assert.Equal(t, inv.IssuedAt, *inv.DueAt)
}

func TestInvoiceService_Create_PaidSetsLastPayment(t *testing.T) {
	db := utils.SetupTestDB(t, "testdb_invoice_service_paid", "invoices", "customers", "users")
	svc := NewInvoiceService(db)

	input := testInvoiceInput("INV-002")
	input.Adjustments.AmountPaid = "125"
	inv, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPaid, inv.Status)
	assert.NotNil(t, inv.LastPaymentAt)
	assert.Equal(t, 0.0, inv.BalanceDue)
}

func TestInvoiceService_Create_PastDueIsOverdue(t *testing.T) {
	db := utils.SetupTestDB(t, "testdb_invoice_service_overdue", "invoices", "customers", "users")
	svc := NewInvoiceService(db)

	due := time.Now().UTC().Add(-48 * time.Hour)
	input := testInvoiceInput("INV-003")
	input.DueAt = &due
	inv, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, models.StatusOverdue, inv.Status)
}

func TestInvoiceService_Create_Validation(t *testing.T) {
	svc := NewInvoiceService(nil) // validation fails before any DB access

	input := testInvoiceInput("INV-004")
	input.Items = nil
	_, err := svc.Create(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidInvoice)

	input = testInvoiceInput("")
	_, err = svc.Create(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidInvoice)

	input = testInvoiceInput("INV-005")
	input.Customer.Name = ""
	_, err = svc.Create(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidInvoice)
}

func TestInvoiceService_GetEditData(t *testing.T) {
	db := utils.SetupTestDB(t, "testdb_invoice_service_edit", "invoices", "customers", "users")
	svc := NewInvoiceService(db)
	ctx := context.Background()

	inv, err := svc.Create(ctx, testInvoiceInput("INV-010"))
	require.NoError(t, err)

	snap, err := svc.GetEditData(ctx, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, inv.ID.Hex(), snap.Invoice.ID)
	assert.Equal(t, "INV-010", snap.Invoice.InvoiceNumber)
	assert.Equal(t, "Acme Pty Ltd", snap.Customer.Name)
	assert.Equal(t, "Studio One", snap.User.Name)
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, inv.InvoiceTotals, snap.Totals)
	// Stored adjustments round-trip through the parser.
	assert.Equal(t, 10.0, billing.ParseAmount(snap.Adjustments.Tax))
	assert.Equal(t, 20.0, billing.ParseAmount(snap.Adjustments.Shipping))
}

func TestInvoiceService_GetEditData_NotFound(t *testing.T) {
	db := utils.SetupTestDB(t, "testdb_invoice_service_edit_nf", "invoices", "customers", "users")
	svc := NewInvoiceService(db)

	_, err := svc.GetEditData(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestInvoiceService_ListAndDelete(t *testing.T) {
	db := utils.SetupTestDB(t, "testdb_invoice_service_list", "invoices", "customers", "users")
	svc := NewInvoiceService(db)
	ctx := context.Background()

	first, err := svc.Create(ctx, testInvoiceInput("INV-020"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, testInvoiceInput("INV-021"))
	require.NoError(t, err)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme Pty Ltd", rows[0].CustomerName)
	assert.Equal(t, 125.0, rows[0].Amount)

	require.NoError(t, svc.Delete(ctx, first.ID))
	rows, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.ErrorIs(t, svc.Delete(ctx, first.ID), mongo.ErrNoDocuments)
}

func TestInvoiceService_CountByStatus(t *testing.T) {
	db := utils.SetupTestDB(t, "testdb_invoice_service_count", "invoices", "customers", "users")
	svc := NewInvoiceService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, testInvoiceInput("INV-030"))
	require.NoError(t, err)
	paid := testInvoiceInput("INV-031")
	paid.Adjustments.AmountPaid = "125"
	_, err = svc.Create(ctx, paid)
	require.NoError(t, err)

	counter, err := svc.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counter.Total)
	assert.Equal(t, 1, counter.Paid)
	assert.Equal(t, 1, counter.Unpaid)
}

func TestInvoiceService_SweepOverdue(t *testing.T) {
	db := utils.SetupTestDB(t, "testdb_invoice_service_sweep", "invoices", "customers", "users")
	svc := NewInvoiceService(db)
	ctx := context.Background()

	due := time.Now().UTC().Add(24 * time.Hour)
	input := testInvoiceInput("INV-040")
	input.DueAt = &due
	inv, err := svc.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnpaid, inv.Status)

	// Nothing due yet.
	toNotify, err := svc.SweepOverdue(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, toNotify)

	// Cross the due date.
	toNotify, err = svc.SweepOverdue(ctx, due.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, toNotify, 1)
	assert.Equal(t, inv.ID, toNotify[0].ID)
	assert.Equal(t, models.StatusOverdue, toNotify[0].Status)

	view, err := svc.GetViewData(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOverdue, view.Invoice.Status)

	// Once notified, later sweeps stay quiet.
	require.NoError(t, svc.MarkOverdueNotified(ctx, inv.ID))
	toNotify, err = svc.SweepOverdue(ctx, due.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, toNotify)
}

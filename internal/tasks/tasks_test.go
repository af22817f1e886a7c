package tasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sinkandika/fyzy-web/internal/billing"
	"github.com/sinkandika/fyzy-web/internal/config"
	"github.com/sinkandika/fyzy-web/internal/models"
	"github.com/sinkandika/fyzy-web/internal/services"
	"github.com/sinkandika/fyzy-web/internal/tasks"
)

// --- Mocks ---

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	args := m.Called(ctx, to, subject, rawMessage)
	return args.Error(0)
}

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Create(ctx context.Context, input services.InvoiceInput) (*models.Invoice, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) GetEditData(ctx context.Context, id primitive.ObjectID) (*billing.Snapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Snapshot), args.Error(1)
}

func (m *MockInvoiceService) GetViewData(ctx context.Context, id primitive.ObjectID) (*services.InvoiceViewData, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InvoiceViewData), args.Error(1)
}

func (m *MockInvoiceService) Update(ctx context.Context, snap billing.Snapshot) (*models.Invoice, error) {
	args := m.Called(ctx, snap)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context) ([]services.InvoiceRow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.InvoiceRow), args.Error(1)
}

func (m *MockInvoiceService) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceService) CountByStatus(ctx context.Context) (billing.InvoiceCounter, error) {
	args := m.Called(ctx)
	return args.Get(0).(billing.InvoiceCounter), args.Error(1)
}

func (m *MockInvoiceService) SweepOverdue(ctx context.Context, now time.Time) ([]models.Invoice, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) MarkOverdueNotified(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Tests ---

func TestHandleEmailDeliveryTask_Success(t *testing.T) {
	mockEmailSender := new(MockEmailSender)
	cfg := &config.Config{SmtpFromAddress: "noreply@fyzy.example.com"}

	p := tasks.NewTaskProcessor(cfg, nil, mockEmailSender, nil)

	payloadBytes, _ := json.Marshal(tasks.EmailTaskPayload{
		To:      "customer@example.com",
		Subject: "Invoice INV-001 is overdue",
		Body:    "The outstanding balance is 125.00.",
	})
	task := asynq.NewTask(tasks.TypeEmailDelivery, payloadBytes)

	mockEmailSender.On("Send",
		mock.Anything,
		[]string{"customer@example.com"},
		"Invoice INV-001 is overdue",
		mock.MatchedBy(func(rawMsg []byte) bool {
			msgStr := string(rawMsg)
			assert.Contains(t, msgStr, "To: customer@example.com")
			assert.Contains(t, msgStr, "From: noreply@fyzy.example.com")
			assert.Contains(t, msgStr, "Subject: Invoice INV-001 is overdue")
			assert.Contains(t, msgStr, "The outstanding balance is 125.00.")
			return true
		}),
	).Return(nil)

	err := p.HandleEmailDeliveryTask(context.Background(), task)

	assert.NoError(t, err)
	mockEmailSender.AssertExpectations(t)
}

func TestHandleEmailDeliveryTask_BadPayload(t *testing.T) {
	mockEmailSender := new(MockEmailSender)
	p := tasks.NewTaskProcessor(&config.Config{}, nil, mockEmailSender, nil)

	task := asynq.NewTask(tasks.TypeEmailDelivery, []byte("{not json"))
	err := p.HandleEmailDeliveryTask(context.Background(), task)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry), "Error should be SkipRetry for a bad payload")
	mockEmailSender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleEmailDeliveryTask_NoRecipient(t *testing.T) {
	mockEmailSender := new(MockEmailSender)
	p := tasks.NewTaskProcessor(&config.Config{}, nil, mockEmailSender, nil)

	payloadBytes, _ := json.Marshal(tasks.EmailTaskPayload{Subject: "x", Body: "y"})
	task := asynq.NewTask(tasks.TypeEmailDelivery, payloadBytes)

	err := p.HandleEmailDeliveryTask(context.Background(), task)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleInvoiceCheckOverdueTask_NothingDue(t *testing.T) {
	mockInvoices := new(MockInvoiceService)
	p := tasks.NewTaskProcessor(&config.Config{}, mockInvoices, nil, nil)

	mockInvoices.On("SweepOverdue", mock.Anything, mock.AnythingOfType("time.Time")).Return([]models.Invoice{}, nil)

	err := p.HandleInvoiceCheckOverdueTask(context.Background(), tasks.NewOverdueCheckTask())

	assert.NoError(t, err)
	mockInvoices.AssertExpectations(t)
	mockInvoices.AssertNotCalled(t, "GetViewData", mock.Anything, mock.Anything)
}

func TestHandleInvoiceCheckOverdueTask_SweepError(t *testing.T) {
	mockInvoices := new(MockInvoiceService)
	p := tasks.NewTaskProcessor(&config.Config{}, mockInvoices, nil, nil)

	mockInvoices.On("SweepOverdue", mock.Anything, mock.AnythingOfType("time.Time")).Return(nil, fmt.Errorf("mongo down"))

	err := p.HandleInvoiceCheckOverdueTask(context.Background(), tasks.NewOverdueCheckTask())
	assert.Error(t, err)
}

func TestHandleInvoiceCheckOverdueTask_NoEmailMarksNotified(t *testing.T) {
	mockInvoices := new(MockInvoiceService)
	p := tasks.NewTaskProcessor(&config.Config{AppName: "Fyzy"}, mockInvoices, nil, nil)

	inv := models.Invoice{Base: models.NewBase(), InvoiceNumber: "INV-050", Status: models.StatusOverdue}
	mockInvoices.On("SweepOverdue", mock.Anything, mock.AnythingOfType("time.Time")).Return([]models.Invoice{inv}, nil)
	// Customer record has no email, so no mail goes out but the flag is set.
	mockInvoices.On("GetViewData", mock.Anything, inv.ID).Return(&services.InvoiceViewData{Invoice: inv}, nil)
	mockInvoices.On("MarkOverdueNotified", mock.Anything, inv.ID).Return(nil)

	err := p.HandleInvoiceCheckOverdueTask(context.Background(), tasks.NewOverdueCheckTask())

	assert.NoError(t, err)
	mockInvoices.AssertExpectations(t)
}

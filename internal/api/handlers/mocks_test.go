package handlers_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sinkandika/fyzy-web/internal/billing"
	"github.com/sinkandika/fyzy-web/internal/models"
	"github.com/sinkandika/fyzy-web/internal/services"
)

// --- Mocks ---

// MockAccountService implements services.IAccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, name, email, password string) (*models.Account, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, email, password string) (*models.Account, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

// MockInvoiceService implements services.IInvoiceService
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

// MockCustomerService implements services.ICustomerService
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) List(ctx context.Context) ([]models.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Customer), args.Error(1)
}

func (m *MockCustomerService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

// MockPayoutService implements services.IPayoutService
type MockPayoutService struct {
	mock.Mock
}

func (m *MockPayoutService) Create(ctx context.Context, amount float64, method, email string) (*models.Payout, error) {
	args := m.Called(ctx, amount, method, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *MockPayoutService) List(ctx context.Context) ([]models.Payout, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payout), args.Error(1)
}

// MockEarningsService implements services.IEarningsService
type MockEarningsService struct {
	mock.Mock
}

func (m *MockEarningsService) Summary(ctx context.Context, feedLimit int) (*billing.EarningsSummary, error) {
	args := m.Called(ctx, feedLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.EarningsSummary), args.Error(1)
}

func (m *MockEarningsService) TotalIncome(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockEarningsService) TotalWithdraw(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sinkandika/fyzy-web/internal/billing"
	"github.com/sinkandika/fyzy-web/internal/models"
)

// IEarningsService defines the interface for the earnings reporting views.
// Every call re-scans the relevant collections; there is no cached or
// incrementally maintained aggregate, so results are always current.
type IEarningsService interface {
	Summary(ctx context.Context, feedLimit int) (*billing.EarningsSummary, error)
	TotalIncome(ctx context.Context) (float64, error)
	TotalWithdraw(ctx context.Context) (float64, error)
}

type earningsService struct {
	db *mongo.Database
}

// NewEarningsService creates a new EarningsService.
func NewEarningsService(db *mongo.Database) IEarningsService {
	return &earningsService{db: db}
}

// Summary scans invoices, payouts and customers and folds them into the
// earnings view. feedLimit > 0 truncates the feed to the most recent N
// entries; totals always cover everything.
func (s *earningsService) Summary(ctx context.Context, feedLimit int) (*billing.EarningsSummary, error) {
	invoices, err := s.allInvoices(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := s.db.Collection(payoutsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing payouts: %w", err)
	}
	var payouts []models.Payout
	if err := cursor.All(ctx, &payouts); err != nil {
		return nil, fmt.Errorf("error decoding payouts: %w", err)
	}

	cursor, err = s.db.Collection(customersCollection).Find(ctx, bson.M{})
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

	summary := billing.AggregateEarnings(invoices, payouts, names)
	if feedLimit > 0 && len(summary.Feed) > feedLimit {
		summary.Feed = summary.Feed[:feedLimit]
	}
	return &summary, nil
}

// TotalIncome sums the paid amounts across all invoices.
func (s *earningsService) TotalIncome(ctx context.Context) (float64, error) {
	invoices, err := s.allInvoices(ctx)
	if err != nil {
		return 0, err
	}
	return billing.AggregateEarnings(invoices, nil, nil).TotalIncome, nil
}

// TotalWithdraw sums the positive payout amounts.
func (s *earningsService) TotalWithdraw(ctx context.Context) (float64, error) {
	cursor, err := s.db.Collection(payoutsCollection).Find(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("error listing payouts: %w", err)
	}
	var payouts []models.Payout
	if err := cursor.All(ctx, &payouts); err != nil {
		return 0, fmt.Errorf("error decoding payouts: %w", err)
	}
	return billing.AggregateEarnings(nil, payouts, nil).TotalWithdraw, nil
}

func (s *earningsService) allInvoices(ctx context.Context) ([]models.Invoice, error) {
	cursor, err := s.db.Collection(invoicesCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing invoices: %w", err)
	}
	var invoices []models.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("error decoding invoices: %w", err)
	}
	return invoices, nil
}

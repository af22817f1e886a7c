package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sinkandika/fyzy-web/internal/db"
	"github.com/sinkandika/fyzy-web/internal/models"
)

// ErrInvalidPayout is returned when a payout request fails validation.
var ErrInvalidPayout = errors.New("invalid payout request")

const payoutsCollection = "payouts"

// MethodPlaceholder is the unselected value of the payout method dropdown.
const MethodPlaceholder = "Select Method"

// IPayoutService defines the interface for withdrawal requests.
type IPayoutService interface {
	Create(ctx context.Context, amount float64, method, email string) (*models.Payout, error)
	List(ctx context.Context) ([]models.Payout, error)
}

type payoutService struct {
	db *mongo.Database
}

// NewPayoutService creates a new PayoutService.
func NewPayoutService(db *mongo.Database) IPayoutService {
	return &payoutService{db: db}
}

// Create validates and records a withdrawal. Validation happens before any
// database access so a bad request never touches the store.
func (s *payoutService) Create(ctx context.Context, amount float64, method, email string) (*models.Payout, error) {
	method = strings.TrimSpace(method)
	email = strings.TrimSpace(email)

	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPayout)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: destination email is required", ErrInvalidPayout)
	}
	if method == "" || method == MethodPlaceholder {
		return nil, fmt.Errorf("%w: a payout method must be selected", ErrInvalidPayout)
	}

	payout := &models.Payout{
		Base:      models.NewBase(),
		Amount:    amount,
		Method:    method,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	err := db.Try(func() error {
		_, insertErr := s.db.Collection(payoutsCollection).InsertOne(ctx, payout)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("error creating payout: %w", err)
	}
	return payout, nil
}

// List returns all payouts.
func (s *payoutService) List(ctx context.Context) ([]models.Payout, error) {
	cursor, err := s.db.Collection(payoutsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing payouts: %w", err)
	}
	var payouts []models.Payout
	if err := cursor.All(ctx, &payouts); err != nil {
		return nil, fmt.Errorf("error decoding payouts: %w", err)
	}
	return payouts, nil
}

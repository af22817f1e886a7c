package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sinkandika/fyzy-web/internal/billing"
	"github.com/sinkandika/fyzy-web/internal/models"
)

// ICustomerService defines the interface for customer lookups.
type ICustomerService interface {
	List(ctx context.Context) ([]models.Customer, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
}

type customerService struct {
	db *mongo.Database
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(db *mongo.Database) ICustomerService {
	return &customerService{db: db}
}

// List returns all customers de-duplicated by email. Every invoice creation
// writes a fresh customer document, so the raw collection accumulates
// duplicates; the first document per email is the canonical record.
func (s *customerService) List(ctx context.Context) ([]models.Customer, error) {
	cursor, err := s.db.Collection(customersCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing customers: %w", err)
	}
	var customers []models.Customer
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, fmt.Errorf("error decoding customers: %w", err)
	}
	return billing.DedupeCustomersByEmail(customers), nil
}

// FindByID finds a customer by its ID.
// Returns nil and mongo.ErrNoDocuments if not found.
func (s *customerService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.Collection(customersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding customer %s: %w", id.Hex(), err)
	}
	return &customer, nil
}

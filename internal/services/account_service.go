package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sinkandika/fyzy-web/internal/auth"
	"github.com/sinkandika/fyzy-web/internal/db"
	"github.com/sinkandika/fyzy-web/internal/models"
)

// ErrEmailExists is returned when an attempt is made to register an email that already exists.
var ErrEmailExists = errors.New("email already in use by another account")

// ErrInvalidCredentials is returned on a failed login so callers cannot tell
// a missing account from a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

const accountsCollection = "accounts"

// IAccountService defines the interface for dashboard login accounts.
// This allows for easier mocking in tests.
type IAccountService interface {
	Register(ctx context.Context, name, email, password string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (*models.Account, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
}

type accountService struct {
	db *mongo.Database
}

// NewAccountService creates a new AccountService and ensures the unique
// email index that registration relies on.
func NewAccountService(db *mongo.Database) IAccountService {
	s := &accountService{db: db}
	if err := s.ensureEmailIndex(context.Background()); err != nil {
		log.Printf("Failed to ensure unique email index on %s: %v", accountsCollection, err)
	}
	return s
}

func (s *accountService) ensureEmailIndex(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := s.db.Collection(accountsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Register creates a new account with a bcrypt-hashed password.
// Returns ErrEmailExists when the email is already taken.
func (s *accountService) Register(ctx context.Context, name, email, password string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	collection := s.db.Collection(accountsCollection)

	// Uniqueness check before insert. A unique index on email backs this up;
	// db.Try absorbs the races the check cannot.
	count, err := collection.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("error checking email uniqueness for %s: %w", email, err)
	}
	if count > 0 {
		return nil, ErrEmailExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &models.Account{
		Base:         models.NewBase(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = db.Try(func() error {
		_, insertErr := collection.InsertOne(ctx, account)
		return insertErr
	})
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("error creating account for %s: %w", email, err)
	}
	return account, nil
}

// Login verifies email and password and returns the matching account.
func (s *accountService) Login(ctx context.Context, email, password string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var account models.Account
	err := s.db.Collection(accountsCollection).FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding account by email %s: %w", email, err)
	}

	if !auth.CheckPasswordHash(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &account, nil
}

// FindByID finds an account by its ID.
// Returns nil and mongo.ErrNoDocuments if not found.
func (s *accountService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	var account models.Account
	err := s.db.Collection(accountsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding account %s: %w", id.Hex(), err)
	}
	return &account, nil
}

package db

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is one insert attempt, retried when it collides on a unique index.
type Operation func() error

// IsDuplicateKeyError reports whether an error is a duplicate key collision.
type IsDuplicateKeyError func(err error) bool

const DefaultMaxRetries = 3

// Try runs op with the default retry settings. Account registration and
// invoice inserts go through this so a race on a unique index gets
// re-attempted instead of surfacing to the caller.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsMongoDuplicateKeyError)
}

// WithRetries runs op up to maxRetries+1 times, backing off between
// duplicate-key failures. Any other error returns immediately.
func WithRetries(op Operation, maxRetries int, isDuplicateKey IsDuplicateKeyError) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		if !isDuplicateKey(err) {
			return err
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// IsMongoDuplicateKeyError reports whether err carries a MongoDB
// duplicate key write error (code 11000), in either a plain or a bulk
// write exception.
func IsMongoDuplicateKeyError(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}

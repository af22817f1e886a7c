package models

import "time"

// Payout is a withdrawal of earned funds to an external destination.
type Payout struct {
	Base      `bson:",inline"`
	Amount    float64   `bson:"amount" json:"amount"`
	Method    string    `bson:"method" json:"method"` // e.g. "PayPal", "Bank Transfer"
	Email     string    `bson:"email" json:"email"`   // Destination account email
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

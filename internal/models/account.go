package models

import "time"

// Account is a dashboard login. Distinct from User, which is the bill-from
// party embedded in invoice data.
type Account struct {
	Base         `bson:",inline"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password" json:"-"` // Store hash, not plaintext
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

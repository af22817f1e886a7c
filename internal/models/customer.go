package models

import "time"

// Customer is the bill-to party captured with each invoice. Customers are
// not maintained as a standalone directory; the admin views derive a
// de-duplicated list from these documents by email.
type Customer struct {
	Base      `bson:",inline"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Address   string    `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

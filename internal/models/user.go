package models

import "time"

// User is the bill-from party (the biller) captured with each invoice.
// One document per invoice, referenced by Invoice.UserID.
type User struct {
	Base      `bson:",inline"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Address   string    `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

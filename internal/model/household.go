package model

import "time"

// Household is a registered resident household, the unit survey
// notifications are addressed to.
type Household struct {
	ID           int       `db:"id" json:"id"`
	HeadName     string    `db:"head_name" json:"head_name"`
	Address      string    `db:"address" json:"address"`
	ContactEmail *string   `db:"contact_email" json:"contact_email"`
	ContactPhone *string   `db:"contact_phone" json:"contact_phone"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

package domain

import "time"

// UserProfile is the canonical projection of an authenticated storefront
// user. Height and gender prefill the size step of the wizard.
type UserProfile struct {
	ID           string
	DisplayName  string
	Email        string
	PhoneNumber  string
	Gender       string
	HeightCM     float64
	Locale       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSyncTime time.Time
}

// Address is one entry in the user's delivery address book.
type Address struct {
	ID         string
	Recipient  string
	Phone      string
	PostalCode string
	Line1      string
	Line2      string
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

package models

import "time"

// Specialty is immutable reference data once referenced by availabilities.
type Specialty struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Doctor links a user account to its clinical profile.
type Doctor struct {
	ID            string      `db:"id" json:"id"`
	UserID        string      `db:"user_id" json:"user_id"`
	LicenseNumber string      `db:"license_number" json:"license_number"`
	Title         string      `db:"title" json:"title"`
	Specialties   []Specialty `db:"-" json:"specialties,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

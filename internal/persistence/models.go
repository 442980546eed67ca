package persistence

import "time"

// Resource represents a bookable unit stored in the catalog.
type Resource struct {
	ID         string
	Code       string
	Kind       string
	Capacity   int
	Attributes *string
	State      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Reservation represents a stored claim on a resource. Window bounds are
// civil date ("2006-01-02") and time-of-day ("15:04") strings so lexical
// ordering in SQL matches the engine's comparison rules.
type Reservation struct {
	ID          string
	ResourceID  string
	RequesterID string
	StartDate   string
	EndDate     string
	StartTime   string
	EndTime     string
	Status      string
	Reason      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// User represents an employee account in the facilities console.
type User struct {
	ID             string
	Email          string
	DisplayName    string
	PasswordHash   string
	IsAdmin        bool
	Disabled       bool
	FailedAttempts int
	LastFailedAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

package application

import (
	"time"

	"github.com/example/facility-reservations/internal/booking"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// ResourceInput captures caller provided resource fields.
type ResourceInput struct {
	Code       string
	Kind       booking.ResourceKind
	Capacity   int
	Attributes *string
}

// CreateResourceParams wraps the data required to register a resource.
type CreateResourceParams struct {
	Principal Principal
	Input     ResourceInput
}

// UpdateResourceParams wraps the data required to update a resource.
type UpdateResourceParams struct {
	Principal  Principal
	ResourceID string
	Input      ResourceInput
}

// SetResourceStateParams wraps the data required to change a resource's
// administrative state.
type SetResourceStateParams struct {
	Principal  Principal
	ResourceID string
	State      booking.AdministrativeState
}

// ReservationInput captures caller provided reservation fields.
type ReservationInput struct {
	ResourceID  string
	RequesterID string
	Window      booking.Window
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// TransitionParams wraps the data required to move a reservation through the
// approval workflow.
type TransitionParams struct {
	Principal     Principal
	ReservationID string
	Target        booking.ReservationStatus
	Reason        string
}

// ListByResourceParams wraps the data required to list reservations bound to
// one resource.
type ListByResourceParams struct {
	Principal  Principal
	ResourceID string
	Status     *booking.ReservationStatus
}

// ConflictWarning describes an overlapping peer reservation surfaced to the
// caller without blocking creation.
type ConflictWarning struct {
	ReservationID string
	Status        booking.ReservationStatus
	Window        booking.Window
}

// ResourceAvailability pairs a resource with its computed status at an instant.
type ResourceAvailability struct {
	Resource booking.Resource
	Status   booking.ResourceStatus
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	IsAdmin     bool
}

// User represents an employee account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User           User
	PasswordHash   string
	Disabled       bool
	FailedAttempts int
	LastFailedAt   *time.Time
}

// Session represents an authenticated session issued to a user.
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

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}

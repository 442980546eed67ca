package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/facility-reservations/internal/application"
	"github.com/example/facility-reservations/internal/booking"
	"github.com/example/facility-reservations/internal/persistence"
)

var (
	userCounter        uint64
	resourceCounter    uint64
	reservationCounter uint64
)

var referenceTime = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record for application tests.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserAdmin sets the admin flag on the generated fixture.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) {
		f.IsAdmin = isAdmin
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		IsAdmin:     f.IsAdmin,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.IsAdmin}
}

// Persistence returns the fixture as a persistence.User row.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		IsAdmin:      f.IsAdmin,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// --------------------------- Resource fixtures ---------------------------

// ResourceFixture represents a deterministic catalog entry.
type ResourceFixture struct {
	ID        string
	Code      string
	Kind      booking.ResourceKind
	Capacity  int
	State     booking.AdministrativeState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResourceOption configures the generated resource fixture.
type ResourceOption func(*ResourceFixture)

// NewResourceFixture returns a deterministic desk fixture with optional overrides.
func NewResourceFixture(opts ...ResourceOption) ResourceFixture {
	idx := atomic.AddUint64(&resourceCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ResourceFixture{
		ID:        fmt.Sprintf("resource-%03d", idx),
		Code:      fmt.Sprintf("DESK-%03d", idx),
		Kind:      booking.KindDesk,
		Capacity:  1,
		State:     booking.StateActive,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithResourceID overrides the generated resource ID.
func WithResourceID(id string) ResourceOption {
	return func(f *ResourceFixture) {
		f.ID = id
	}
}

// WithResourceCode overrides the generated code.
func WithResourceCode(code string) ResourceOption {
	return func(f *ResourceFixture) {
		f.Code = code
	}
}

// WithResourceKind sets the kind and capacity appropriate for it.
func WithResourceKind(kind booking.ResourceKind, capacity int) ResourceOption {
	return func(f *ResourceFixture) {
		f.Kind = kind
		f.Capacity = capacity
	}
}

// WithResourceState sets the administrative state on the fixture.
func WithResourceState(state booking.AdministrativeState) ResourceOption {
	return func(f *ResourceFixture) {
		f.State = state
	}
}

// Booking returns the fixture as a booking.Resource value.
func (f ResourceFixture) Booking() booking.Resource {
	return booking.Resource{
		ID:        f.ID,
		Code:      f.Code,
		Kind:      f.Kind,
		Capacity:  f.Capacity,
		State:     f.State,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Resource row.
func (f ResourceFixture) Persistence() persistence.Resource {
	return persistence.Resource{
		ID:        f.ID,
		Code:      f.Code,
		Kind:      string(f.Kind),
		Capacity:  f.Capacity,
		State:     string(f.State),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ------------------------- Reservation fixtures --------------------------

// ReservationFixture represents a deterministic reservation record.
type ReservationFixture struct {
	ID          string
	ResourceID  string
	RequesterID string
	Window      booking.Window
	Status      booking.ReservationStatus
	Reason      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a deterministic pending reservation with
// optional overrides. Consecutive fixtures occupy consecutive hour slots so
// they do not overlap unless a test arranges it.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	start := 8 + int(idx)%10
	fixture := ReservationFixture{
		ID:          fmt.Sprintf("reservation-%03d", idx),
		ResourceID:  "resource-001",
		RequesterID: "user-001",
		Window: booking.Window{
			StartDate: "2025-03-10",
			EndDate:   "2025-03-10",
			StartTime: fmt.Sprintf("%02d:00", start),
			EndTime:   fmt.Sprintf("%02d:00", start+1),
		},
		Status:    booking.StatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithReservationResource binds the reservation to a resource.
func WithReservationResource(resourceID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ResourceID = resourceID
	}
}

// WithReservationRequester binds the reservation to a requester.
func WithReservationRequester(userID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.RequesterID = userID
	}
}

// WithReservationWindow overrides the generated window.
func WithReservationWindow(window booking.Window) ReservationOption {
	return func(f *ReservationFixture) {
		f.Window = window
	}
}

// WithReservationStatus sets the status on the fixture.
func WithReservationStatus(status booking.ReservationStatus) ReservationOption {
	return func(f *ReservationFixture) {
		f.Status = status
	}
}

// Persistence returns the fixture as a persistence.Reservation row.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:          f.ID,
		ResourceID:  f.ResourceID,
		RequesterID: f.RequesterID,
		StartDate:   f.Window.StartDate,
		EndDate:     f.Window.EndDate,
		StartTime:   f.Window.StartTime,
		EndTime:     f.Window.EndTime,
		Status:      string(f.Status),
		Reason:      f.Reason,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Booking returns the fixture as a booking.Reservation value.
func (f ReservationFixture) Booking() booking.Reservation {
	return booking.Reservation{
		ID:          f.ID,
		ResourceID:  f.ResourceID,
		RequesterID: f.RequesterID,
		Window:      f.Window,
		Status:      f.Status,
		Reason:      f.Reason,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

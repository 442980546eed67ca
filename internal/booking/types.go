package booking

import "time"

// ResourceKind identifies the category of a bookable unit.
type ResourceKind string

const (
	// KindDesk is a bookable work desk, reserved for one or more whole days.
	KindDesk ResourceKind = "desk"
	// KindRoom is a conference room, reserved for a same-day time slot.
	KindRoom ResourceKind = "room"
	// KindParkingSlot is a parking space, reserved for a same-day time slot.
	KindParkingSlot ResourceKind = "parking_slot"
)

// ResourceKinds enumerates every supported kind in declaration order.
func ResourceKinds() []ResourceKind {
	return []ResourceKind{KindDesk, KindRoom, KindParkingSlot}
}

// ValidResourceKind reports whether kind is one of the supported categories.
func ValidResourceKind(kind ResourceKind) bool {
	switch kind {
	case KindDesk, KindRoom, KindParkingSlot:
		return true
	}
	return false
}

// AdministrativeState captures the lifecycle of a resource in the catalog.
type AdministrativeState string

const (
	// StateActive marks a resource as bookable.
	StateActive AdministrativeState = "active"
	// StateMaintenance removes a resource from booking temporarily.
	StateMaintenance AdministrativeState = "maintenance"
	// StateRetired removes a resource from booking permanently.
	StateRetired AdministrativeState = "retired"
)

// ValidAdministrativeState reports whether state is a known catalog state.
func ValidAdministrativeState(state AdministrativeState) bool {
	switch state {
	case StateActive, StateMaintenance, StateRetired:
		return true
	}
	return false
}

// Resource is a bookable unit in the facility catalog.
type Resource struct {
	ID         string
	Code       string
	Kind       ResourceKind
	Capacity   int
	Attributes *string
	State      AdministrativeState
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReservationStatus tracks a reservation through its approval lifecycle.
type ReservationStatus string

const (
	// StatusPending is the initial status of every new reservation.
	StatusPending ReservationStatus = "pending"
	// StatusConfirmed marks a reservation approved by an administrator.
	StatusConfirmed ReservationStatus = "confirmed"
	// StatusRejected marks a reservation declined by an administrator. Terminal.
	StatusRejected ReservationStatus = "rejected"
	// StatusCancelled marks a reservation withdrawn or force-cancelled. Terminal.
	StatusCancelled ReservationStatus = "cancelled"
)

// ValidReservationStatus reports whether status is a known lifecycle status.
func ValidReservationStatus(status ReservationStatus) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave the status.
func (s ReservationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// Blocking reports whether a reservation in this status occupies its window
// for conflict and availability purposes.
func (s ReservationStatus) Blocking() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Reservation is a time-bounded claim on one resource by one requester.
type Reservation struct {
	ID          string
	ResourceID  string
	RequesterID string
	Window      Window
	Status      ReservationStatus
	Reason      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

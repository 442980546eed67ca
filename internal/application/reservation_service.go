package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/facility-reservations/internal/booking"
	"github.com/example/facility-reservations/internal/persistence"
)

// ReservationQuery narrows a reservation listing. ActiveAt keeps only
// reservations whose window has not fully elapsed at the given instant.
type ReservationQuery struct {
	ResourceID string
	Statuses   []booking.ReservationStatus
	ActiveAt   *booking.Instant
}

// ReservationRepository captures the persistence operations needed by the
// reservation workflow.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation booking.Reservation) (booking.Reservation, error)
	GetReservation(ctx context.Context, id string) (booking.Reservation, error)
	UpdateReservation(ctx context.Context, reservation booking.Reservation) (booking.Reservation, error)
	ListReservations(ctx context.Context, query ReservationQuery) ([]booking.Reservation, error)
}

// ReservationService orchestrates reservation submission and the approval
// workflow. Approvals and the conflict checks they depend on run under the
// per-resource lock shared with the registry.
type ReservationService struct {
	reservations ReservationRepository
	resources    ResourceRepository
	locks        *ResourceLocks
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService wires dependencies for reservation operations.
func NewReservationService(reservations ReservationRepository, resources ResourceRepository, locks *ResourceLocks, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if locks == nil {
		locks = NewResourceLocks()
	}
	return &ReservationService{
		reservations: reservations,
		resources:    resources,
		locks:        locks,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CreateReservation submits a pending reservation. Overlapping pending or
// confirmed peers never block submission; they are returned as warnings so
// the requester can decide whether to keep waiting for approval.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (reservation booking.Reservation, warnings []ConflictWarning, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateReservation",
		"principal_id", params.Principal.UserID,
		"resource_id", params.Input.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID, "warning_count", len(warnings)).InfoContext(ctx, "reservation created")
	}()

	input := params.Input
	if input.RequesterID == "" {
		input.RequesterID = params.Principal.UserID
	}
	// Booking on behalf of someone else is an administrator action.
	if input.RequesterID != params.Principal.UserID && !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateReservationInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var resource booking.Resource
	resource, err = s.resources.GetResource(ctx, input.ResourceID)
	if err != nil {
		err = mapRegistryRepoError(err)
		return
	}
	if resource.State != booking.StateActive {
		vErr := &ValidationError{}
		vErr.add("resourceId", "resource is not in active service")
		err = vErr
		return
	}

	now := s.now()
	reservation = booking.Reservation{
		ID:          s.idGenerator(),
		ResourceID:  input.ResourceID,
		RequesterID: input.RequesterID,
		Window:      input.Window,
		Status:      booking.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var peers []booking.Reservation
	peers, err = s.listBlocking(ctx, input.ResourceID)
	if err != nil {
		return
	}

	var persisted booking.Reservation
	persisted, err = s.reservations.CreateReservation(ctx, reservation)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	reservation = persisted

	for _, peer := range booking.Overlapping(reservation.Window, reservation.ResourceID, peers, reservation.ID) {
		warnings = append(warnings, ConflictWarning{
			ReservationID: peer.ID,
			Status:        peer.Status,
			Window:        peer.Window,
		})
	}
	return
}

// GetReservation returns one reservation for any authenticated principal.
func (s *ReservationService) GetReservation(ctx context.Context, principal Principal, reservationID string) (booking.Reservation, error) {
	if s == nil {
		return booking.Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return booking.Reservation{}, mapReservationRepoError(err)
	}
	return reservation, nil
}

// ListByResource returns the reservations bound to one resource, optionally
// narrowed to a single status.
func (s *ReservationService) ListByResource(ctx context.Context, params ListByResourceParams) (reservations []booking.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListByResource",
		"principal_id", params.Principal.UserID,
		"resource_id", params.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).InfoContext(ctx, "reservations listed")
	}()

	if params.Status != nil && !booking.ValidReservationStatus(*params.Status) {
		vErr := &ValidationError{}
		vErr.add("status", "status is invalid")
		err = vErr
		return
	}

	if _, err = s.resources.GetResource(ctx, params.ResourceID); err != nil {
		err = mapRegistryRepoError(err)
		return
	}

	query := ReservationQuery{ResourceID: params.ResourceID}
	if params.Status != nil {
		query.Statuses = []booking.ReservationStatus{*params.Status}
	}
	reservations, err = s.reservations.ListReservations(ctx, query)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	return
}

// ListActive returns the pending and confirmed reservations whose window has
// not fully elapsed at the given instant. A zero instant means now.
func (s *ReservationService) ListActive(ctx context.Context, principal Principal, at booking.Instant) (reservations []booking.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListActive", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list active reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).InfoContext(ctx, "active reservations listed")
	}()

	if at == (booking.Instant{}) {
		at = booking.At(s.now())
	}
	if err = validateInstant(at); err != nil {
		return
	}
	reservations, err = s.reservations.ListReservations(ctx, ReservationQuery{
		Statuses: []booking.ReservationStatus{booking.StatusPending, booking.StatusConfirmed},
		ActiveAt: &at,
	})
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	return
}

// ValidateForApproval reports whether approving the reservation would collide
// with an already confirmed peer, returning that peer's id. An empty id means
// the approval would currently succeed; the answer is advisory and is checked
// again under the resource lock when Transition runs.
func (s *ReservationService) ValidateForApproval(ctx context.Context, principal Principal, reservationID string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("ReservationService is nil")
	}
	if !principal.IsAdmin {
		return "", ErrUnauthorized
	}

	current, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return "", mapReservationRepoError(err)
	}
	if !booking.ValidTransition(current.Status, booking.StatusConfirmed) {
		return "", ErrInvalidTransition
	}

	peers, err := s.listBlocking(ctx, current.ResourceID)
	if err != nil {
		return "", err
	}
	conflictingID, _ := booking.ConflictingConfirmed(current.Window, current.ResourceID, peers, current.ID)
	return conflictingID, nil
}

// Transition moves a reservation through the approval workflow. The check of
// the current status, the conflict scan for approvals, and the status write
// all happen inside the resource's critical section so two racing approvals
// cannot both succeed.
func (s *ReservationService) Transition(ctx context.Context, params TransitionParams) (reservation booking.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Transition",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
		"target", string(params.Target),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to transition reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation transitioned")
	}()

	if !booking.ValidReservationStatus(params.Target) {
		vErr := &ValidationError{}
		vErr.add("status", "status is invalid")
		err = vErr
		return
	}

	var current booking.Reservation
	current, err = s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	if err = s.authorizeTransition(params.Principal, current, params.Target); err != nil {
		return
	}

	release := s.locks.Acquire(current.ResourceID)
	defer release()

	// Re-read inside the lock; a racing approval may have moved it already.
	current, err = s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	if !booking.ValidTransition(current.Status, params.Target) {
		err = ErrInvalidTransition
		return
	}

	reason := strings.TrimSpace(params.Reason)
	if booking.RequiresReason(params.Target) && reason == "" {
		err = ErrMissingReason
		return
	}

	if params.Target == booking.StatusConfirmed {
		var peers []booking.Reservation
		peers, err = s.listBlocking(ctx, current.ResourceID)
		if err != nil {
			return
		}
		if conflictingID, found := booking.ConflictingConfirmed(current.Window, current.ResourceID, peers, current.ID); found {
			err = &ConflictError{ConflictingID: conflictingID}
			return
		}
	}

	current.Status = params.Target
	if reason != "" {
		current.Reason = &reason
	}
	current.UpdatedAt = s.now()

	reservation, err = s.reservations.UpdateReservation(ctx, current)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	return
}

// authorizeTransition enforces who may drive each workflow edge: approvals
// and rejections are administrator actions, cancellation belongs to the
// requester or an administrator.
func (s *ReservationService) authorizeTransition(principal Principal, reservation booking.Reservation, target booking.ReservationStatus) error {
	switch target {
	case booking.StatusConfirmed, booking.StatusRejected:
		if !principal.IsAdmin {
			return ErrUnauthorized
		}
	case booking.StatusCancelled:
		if !principal.IsAdmin && principal.UserID != reservation.RequesterID {
			return ErrUnauthorized
		}
	}
	return nil
}

// listBlocking fetches the pending and confirmed reservations on a resource.
func (s *ReservationService) listBlocking(ctx context.Context, resourceID string) ([]booking.Reservation, error) {
	peers, err := s.reservations.ListReservations(ctx, ReservationQuery{
		ResourceID: resourceID,
		Statuses:   []booking.ReservationStatus{booking.StatusPending, booking.StatusConfirmed},
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, mapReservationRepoError(err)
	}
	return peers, nil
}

func validateReservationInput(input ReservationInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.ResourceID) == "" {
		vErr.add("resourceId", "resourceId is required")
	}
	if strings.TrimSpace(input.RequesterID) == "" {
		vErr.add("requesterId", "requesterId is required")
	}
	if windowErr := input.Window.Validate(); windowErr != nil {
		vErr.add("window", windowErr.Error())
	}

	return vErr
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("resourceId", "resource does not exist")
		return vErr
	}
	return err
}

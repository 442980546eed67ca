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

// ResourceRepository captures the persistence operations needed by the registry.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource booking.Resource) (booking.Resource, error)
	GetResource(ctx context.Context, id string) (booking.Resource, error)
	UpdateResource(ctx context.Context, resource booking.Resource) (booking.Resource, error)
	ListResources(ctx context.Context, kind booking.ResourceKind) ([]booking.Resource, error)
}

// decommissionReason is recorded on every reservation force-cancelled when
// its resource leaves active service.
const decommissionReason = "resource decommissioned"

// RegistryService orchestrates validation, authorization, and persistence for
// the resource catalog, including the cascade cancellation that accompanies a
// resource leaving active service.
type RegistryService struct {
	resources    ResourceRepository
	reservations ReservationRepository
	locks        *ResourceLocks
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewRegistryService wires dependencies for catalog operations.
func NewRegistryService(resources ResourceRepository, reservations ReservationRepository, locks *ResourceLocks, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RegistryService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if locks == nil {
		locks = NewResourceLocks()
	}
	return &RegistryService{
		resources:    resources,
		reservations: reservations,
		locks:        locks,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *RegistryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RegistryService", operation, attrs...)
}

// CreateResource validates input and registers a new bookable unit for administrators.
func (s *RegistryService) CreateResource(ctx context.Context, params CreateResourceParams) (resource booking.Resource, err error) {
	if s == nil {
		err = fmt.Errorf("RegistryService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateResource",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("resource_id", resource.ID).InfoContext(ctx, "resource created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateResourceInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	resource = booking.Resource{
		ID:         s.idGenerator(),
		Code:       strings.TrimSpace(params.Input.Code),
		Kind:       params.Input.Kind,
		Capacity:   params.Input.Capacity,
		Attributes: normalizeOptionalString(params.Input.Attributes),
		State:      booking.StateActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if s.resources == nil {
		return
	}

	var persisted booking.Resource
	persisted, err = s.resources.CreateResource(ctx, resource)
	if err != nil {
		err = mapRegistryRepoError(err)
		return
	}

	resource = persisted
	return
}

// GetResource returns one catalog entry for any authenticated principal.
func (s *RegistryService) GetResource(ctx context.Context, principal Principal, resourceID string) (booking.Resource, error) {
	if s == nil {
		return booking.Resource{}, fmt.Errorf("RegistryService is nil")
	}
	if s.resources == nil {
		return booking.Resource{}, fmt.Errorf("resource repository not configured")
	}

	resource, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return booking.Resource{}, mapRegistryRepoError(err)
	}
	return resource, nil
}

// ListResources returns the catalog, optionally narrowed to one kind, for any
// authenticated principal.
func (s *RegistryService) ListResources(ctx context.Context, principal Principal, kind booking.ResourceKind) (resources []booking.Resource, err error) {
	if s == nil {
		err = fmt.Errorf("RegistryService is nil")
		return
	}
	if s.resources == nil {
		return nil, nil
	}

	if kind != "" && !booking.ValidResourceKind(kind) {
		vErr := &ValidationError{}
		vErr.add("kind", "kind is invalid")
		err = vErr
		return
	}

	logger := s.loggerWith(ctx, "ListResources",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list resources", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(resources)).InfoContext(ctx, "resources listed")
	}()

	resources, err = s.resources.ListResources(ctx, kind)
	if err != nil {
		err = mapRegistryRepoError(err)
		return
	}
	return
}

// UpdateResource edits the code, capacity, and attributes of a catalog entry
// for administrators. Kind and administrative state are not editable here.
func (s *RegistryService) UpdateResource(ctx context.Context, params UpdateResourceParams) (resource booking.Resource, err error) {
	if s == nil {
		err = fmt.Errorf("RegistryService is nil")
		return
	}
	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateResource",
		"principal_id", params.Principal.UserID,
		"resource_id", params.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "resource updated")
	}()

	var existing booking.Resource
	existing, err = s.resources.GetResource(ctx, params.ResourceID)
	if err != nil {
		err = mapRegistryRepoError(err)
		return
	}

	input := params.Input
	if input.Kind == "" {
		input.Kind = existing.Kind
	}
	vErr := validateResourceInput(input)
	if input.Kind != existing.Kind {
		vErr.add("kind", "kind cannot be changed")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Code = strings.TrimSpace(input.Code)
	updated.Capacity = input.Capacity
	updated.Attributes = normalizeOptionalString(input.Attributes)
	updated.UpdatedAt = s.now()

	resource, err = s.resources.UpdateResource(ctx, updated)
	if err != nil {
		err = mapRegistryRepoError(err)
		return
	}
	return
}

// SetAdministrativeState moves a resource between active, maintenance, and
// retired. Leaving the active state force-cancels every not-yet-elapsed
// pending or confirmed reservation on the resource, bypassing the normal
// actor permission checks. The whole operation runs under the per-resource
// lock so no approval can slip in between the cascade and the state write.
func (s *RegistryService) SetAdministrativeState(ctx context.Context, params SetResourceStateParams) (resource booking.Resource, cancelled int, err error) {
	if s == nil {
		err = fmt.Errorf("RegistryService is nil")
		return
	}
	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "SetAdministrativeState",
		"principal_id", params.Principal.UserID,
		"resource_id", params.ResourceID,
		"state", string(params.State),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to change resource state", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("cancelled_reservations", cancelled).InfoContext(ctx, "resource state changed")
	}()

	if !booking.ValidAdministrativeState(params.State) {
		vErr := &ValidationError{}
		vErr.add("state", "state is invalid")
		err = vErr
		return
	}

	release := s.locks.Acquire(params.ResourceID)
	defer release()

	var existing booking.Resource
	existing, err = s.resources.GetResource(ctx, params.ResourceID)
	if err != nil {
		err = mapRegistryRepoError(err)
		return
	}

	if params.State != booking.StateActive {
		cancelled, err = s.cascadeCancel(ctx, existing.ID)
		if err != nil {
			return
		}
	}

	updated := existing
	updated.State = params.State
	updated.UpdatedAt = s.now()

	resource, err = s.resources.UpdateResource(ctx, updated)
	if err != nil {
		err = mapRegistryRepoError(err)
		return
	}
	return
}

// cascadeCancel cancels every blocking reservation on the resource whose
// window has not fully elapsed, recording the system-supplied reason.
func (s *RegistryService) cascadeCancel(ctx context.Context, resourceID string) (int, error) {
	if s.reservations == nil {
		return 0, nil
	}

	now := booking.At(s.now())
	active, err := s.reservations.ListReservations(ctx, ReservationQuery{
		ResourceID: resourceID,
		Statuses:   []booking.ReservationStatus{booking.StatusPending, booking.StatusConfirmed},
		ActiveAt:   &now,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	cancelled := 0
	reason := decommissionReason
	for _, reservation := range active {
		reservation.Status = booking.StatusCancelled
		reservation.Reason = &reason
		reservation.UpdatedAt = s.now()
		if _, err := s.reservations.UpdateReservation(ctx, reservation); err != nil {
			return cancelled, err
		}
		cancelled++
	}

	return cancelled, nil
}

func validateResourceInput(input ResourceInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Code) == "" {
		vErr.add("code", "code is required")
	}
	if !booking.ValidResourceKind(input.Kind) {
		vErr.add("kind", "kind is invalid")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}

	return vErr
}

func mapRegistryRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrDuplicateCode
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("capacity", "capacity must be positive")
		return vErr
	}
	return err
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

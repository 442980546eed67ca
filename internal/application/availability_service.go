package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/facility-reservations/internal/booking"
	"github.com/example/facility-reservations/internal/persistence"
)

// OccupancySummary reports the share of active resources occupied at an instant.
type OccupancySummary struct {
	At            booking.Instant
	ActiveCount   int
	OccupiedCount int
	Rate          float64
}

// AvailabilityService computes point-in-time resource statuses from live
// reservation data. Nothing is cached; every answer is derived on demand.
type AvailabilityService struct {
	resources    ResourceRepository
	reservations ReservationRepository
	now          func() time.Time
	logger       *slog.Logger
}

// NewAvailabilityService wires dependencies for availability queries.
func NewAvailabilityService(resources ResourceRepository, reservations ReservationRepository, now func() time.Time, logger *slog.Logger) *AvailabilityService {
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{
		resources:    resources,
		reservations: reservations,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AvailabilityService", operation, attrs...)
}

// ResourceStatus reports the status of a single resource at the given
// instant. A zero instant means now.
func (s *AvailabilityService) ResourceStatus(ctx context.Context, principal Principal, resourceID string, at booking.Instant) (booking.ResourceStatus, error) {
	if s == nil {
		return "", fmt.Errorf("AvailabilityService is nil")
	}

	at = s.resolveInstant(at)
	if err := validateInstant(at); err != nil {
		return "", err
	}

	resource, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return "", mapRegistryRepoError(err)
	}

	reservations, err := s.blockingAt(ctx, resourceID, at)
	if err != nil {
		return "", err
	}

	return booking.StatusOf(resource, at, reservations), nil
}

// Snapshot reports the status of every resource at the given instant,
// optionally narrowed to one kind. A zero instant means now.
func (s *AvailabilityService) Snapshot(ctx context.Context, principal Principal, kind booking.ResourceKind, at booking.Instant) (results []ResourceAvailability, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Snapshot",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute availability snapshot", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(results)).InfoContext(ctx, "availability snapshot computed")
	}()

	at = s.resolveInstant(at)
	if err = validateInstant(at); err != nil {
		return
	}
	if kind != "" && !booking.ValidResourceKind(kind) {
		vErr := &ValidationError{}
		vErr.add("kind", "kind is invalid")
		err = vErr
		return
	}

	var resources []booking.Resource
	resources, err = s.resources.ListResources(ctx, kind)
	if err != nil {
		err = mapRegistryRepoError(err)
		return
	}

	for _, resource := range resources {
		status := booking.ResourceUnavailable
		if resource.State == booking.StateActive {
			var blocking []booking.Reservation
			blocking, err = s.blockingAt(ctx, resource.ID, at)
			if err != nil {
				return
			}
			status = booking.StatusOf(resource, at, blocking)
		}
		results = append(results, ResourceAvailability{Resource: resource, Status: status})
	}
	return
}

// Occupancy reports the fraction of active resources that are reserved or
// holding a pending reservation at the given instant. A zero instant means now.
func (s *AvailabilityService) Occupancy(ctx context.Context, principal Principal, at booking.Instant) (OccupancySummary, error) {
	if s == nil {
		return OccupancySummary{}, fmt.Errorf("AvailabilityService is nil")
	}

	at = s.resolveInstant(at)
	if err := validateInstant(at); err != nil {
		return OccupancySummary{}, err
	}

	snapshot, err := s.Snapshot(ctx, principal, "", at)
	if err != nil {
		return OccupancySummary{}, err
	}

	summary := OccupancySummary{At: at}
	for _, entry := range snapshot {
		if entry.Resource.State != booking.StateActive {
			continue
		}
		summary.ActiveCount++
		if entry.Status.Occupied() {
			summary.OccupiedCount++
		}
	}
	if summary.ActiveCount > 0 {
		summary.Rate = float64(summary.OccupiedCount) / float64(summary.ActiveCount)
	}
	return summary, nil
}

func (s *AvailabilityService) resolveInstant(at booking.Instant) booking.Instant {
	if at.Date == "" && at.Time == "" {
		return booking.At(s.now())
	}
	return at
}

func (s *AvailabilityService) blockingAt(ctx context.Context, resourceID string, at booking.Instant) ([]booking.Reservation, error) {
	reservations, err := s.reservations.ListReservations(ctx, ReservationQuery{
		ResourceID: resourceID,
		Statuses:   []booking.ReservationStatus{booking.StatusPending, booking.StatusConfirmed},
		ActiveAt:   &at,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, mapReservationRepoError(err)
	}
	return reservations, nil
}

func validateInstant(at booking.Instant) error {
	vErr := &ValidationError{}
	if _, err := time.Parse(booking.DateLayout, at.Date); err != nil {
		vErr.add("date", "date must use the 2006-01-02 layout")
	}
	if _, err := time.Parse(booking.TimeLayout, at.Time); err != nil {
		vErr.add("time", "time must use the 15:04 layout")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

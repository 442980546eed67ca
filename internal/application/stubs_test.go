package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/facility-reservations/internal/booking"
)

// memResourceRepo is a mutex protected in-memory ResourceRepository.
type memResourceRepo struct {
	mu        sync.Mutex
	resources map[string]booking.Resource

	createErr error
	getErr    error
	updateErr error
	listErr   error
}

func newMemResourceRepo(resources ...booking.Resource) *memResourceRepo {
	repo := &memResourceRepo{resources: make(map[string]booking.Resource)}
	for _, resource := range resources {
		repo.resources[resource.ID] = resource
	}
	return repo
}

func (r *memResourceRepo) CreateResource(ctx context.Context, resource booking.Resource) (booking.Resource, error) {
	if r.createErr != nil {
		return booking.Resource{}, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources[resource.ID] = resource
	return resource, nil
}

func (r *memResourceRepo) GetResource(ctx context.Context, id string) (booking.Resource, error) {
	if r.getErr != nil {
		return booking.Resource{}, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resource, ok := r.resources[id]
	if !ok {
		return booking.Resource{}, ErrNotFound
	}
	return resource, nil
}

func (r *memResourceRepo) UpdateResource(ctx context.Context, resource booking.Resource) (booking.Resource, error) {
	if r.updateErr != nil {
		return booking.Resource{}, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.resources[resource.ID]; !ok {
		return booking.Resource{}, ErrNotFound
	}
	r.resources[resource.ID] = resource
	return resource, nil
}

func (r *memResourceRepo) ListResources(ctx context.Context, kind booking.ResourceKind) ([]booking.Resource, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.Resource
	for _, resource := range r.resources {
		if kind != "" && resource.Kind != kind {
			continue
		}
		out = append(out, resource)
	}
	return out, nil
}

// memReservationRepo is a mutex protected in-memory ReservationRepository.
type memReservationRepo struct {
	mu           sync.Mutex
	reservations map[string]booking.Reservation

	createErr error
	getErr    error
	updateErr error
	listErr   error
}

func newMemReservationRepo(reservations ...booking.Reservation) *memReservationRepo {
	repo := &memReservationRepo{reservations: make(map[string]booking.Reservation)}
	for _, reservation := range reservations {
		repo.reservations[reservation.ID] = reservation
	}
	return repo
}

func (r *memReservationRepo) CreateReservation(ctx context.Context, reservation booking.Reservation) (booking.Reservation, error) {
	if r.createErr != nil {
		return booking.Reservation{}, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (r *memReservationRepo) GetReservation(ctx context.Context, id string) (booking.Reservation, error) {
	if r.getErr != nil {
		return booking.Reservation{}, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	reservation, ok := r.reservations[id]
	if !ok {
		return booking.Reservation{}, ErrNotFound
	}
	return reservation, nil
}

func (r *memReservationRepo) UpdateReservation(ctx context.Context, reservation booking.Reservation) (booking.Reservation, error) {
	if r.updateErr != nil {
		return booking.Reservation{}, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reservations[reservation.ID]; !ok {
		return booking.Reservation{}, ErrNotFound
	}
	r.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (r *memReservationRepo) ListReservations(ctx context.Context, query ReservationQuery) ([]booking.Reservation, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.Reservation
	for _, reservation := range r.reservations {
		if query.ResourceID != "" && reservation.ResourceID != query.ResourceID {
			continue
		}
		if len(query.Statuses) > 0 {
			matched := false
			for _, status := range query.Statuses {
				if reservation.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if query.ActiveAt != nil && reservation.Window.ElapsedBy(*query.ActiveAt) {
			continue
		}
		out = append(out, reservation)
	}
	return out, nil
}

func (r *memReservationRepo) get(id string) booking.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reservations[id]
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	counter := 0
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}

package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/facility-reservations/internal/booking"
	"github.com/example/facility-reservations/internal/persistence"
)

var registryNow = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func newRegistryService(resources *memResourceRepo, reservations *memReservationRepo) *RegistryService {
	return NewRegistryService(resources, reservations, NewResourceLocks(), sequentialIDs("resource"), fixedNow(registryNow), nil)
}

func TestRegistryService_CreateResource(t *testing.T) {
	admin := Principal{UserID: "admin-1", IsAdmin: true}

	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := newRegistryService(newMemResourceRepo(), newMemReservationRepo())

		_, err := svc.CreateResource(context.Background(), CreateResourceParams{
			Principal: Principal{UserID: "user-1"},
			Input:     ResourceInput{Code: "DESK-001", Kind: booking.KindDesk, Capacity: 1},
		})

		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates required attributes", func(t *testing.T) {
		svc := newRegistryService(newMemResourceRepo(), newMemReservationRepo())

		_, err := svc.CreateResource(context.Background(), CreateResourceParams{
			Principal: admin,
			Input:     ResourceInput{Code: "  ", Kind: "locker", Capacity: 0},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"code", "kind", "capacity"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected field error for %q", field)
			}
		}
	})

	t.Run("persists an active resource", func(t *testing.T) {
		repo := newMemResourceRepo()
		svc := newRegistryService(repo, newMemReservationRepo())

		resource, err := svc.CreateResource(context.Background(), CreateResourceParams{
			Principal: admin,
			Input:     ResourceInput{Code: "  ROOM-12F  ", Kind: booking.KindRoom, Capacity: 8},
		})
		if err != nil {
			t.Fatalf("CreateResource: %v", err)
		}

		if resource.Code != "ROOM-12F" {
			t.Errorf("expected trimmed code, got %q", resource.Code)
		}
		if resource.State != booking.StateActive {
			t.Errorf("expected new resources to start active, got %q", resource.State)
		}
		if resource.ID == "" {
			t.Error("expected generated id")
		}
		if !resource.CreatedAt.Equal(registryNow) || !resource.UpdatedAt.Equal(registryNow) {
			t.Errorf("unexpected timestamps: %v / %v", resource.CreatedAt, resource.UpdatedAt)
		}
	})

	t.Run("maps duplicate codes", func(t *testing.T) {
		repo := newMemResourceRepo()
		repo.createErr = persistence.ErrDuplicate
		svc := newRegistryService(repo, newMemReservationRepo())

		_, err := svc.CreateResource(context.Background(), CreateResourceParams{
			Principal: admin,
			Input:     ResourceInput{Code: "DESK-001", Kind: booking.KindDesk, Capacity: 1},
		})

		if !errors.Is(err, ErrDuplicateCode) {
			t.Fatalf("expected ErrDuplicateCode, got %v", err)
		}
	})
}

func TestRegistryService_UpdateResource(t *testing.T) {
	admin := Principal{UserID: "admin-1", IsAdmin: true}
	existing := booking.Resource{
		ID: "resource-1", Code: "DESK-001", Kind: booking.KindDesk,
		Capacity: 1, State: booking.StateActive,
	}

	t.Run("rejects kind changes", func(t *testing.T) {
		svc := newRegistryService(newMemResourceRepo(existing), newMemReservationRepo())

		_, err := svc.UpdateResource(context.Background(), UpdateResourceParams{
			Principal:  admin,
			ResourceID: "resource-1",
			Input:      ResourceInput{Code: "DESK-001", Kind: booking.KindRoom, Capacity: 4},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["kind"]; !ok {
			t.Error("expected field error for kind")
		}
	})

	t.Run("updates code and capacity", func(t *testing.T) {
		repo := newMemResourceRepo(existing)
		svc := newRegistryService(repo, newMemReservationRepo())

		updated, err := svc.UpdateResource(context.Background(), UpdateResourceParams{
			Principal:  admin,
			ResourceID: "resource-1",
			Input:      ResourceInput{Code: "DESK-001A", Capacity: 2},
		})
		if err != nil {
			t.Fatalf("UpdateResource: %v", err)
		}

		if updated.Code != "DESK-001A" || updated.Capacity != 2 {
			t.Errorf("unexpected update: %+v", updated)
		}
		if updated.Kind != booking.KindDesk {
			t.Errorf("kind must be preserved, got %q", updated.Kind)
		}
	})

	t.Run("reports missing resources", func(t *testing.T) {
		svc := newRegistryService(newMemResourceRepo(), newMemReservationRepo())

		_, err := svc.UpdateResource(context.Background(), UpdateResourceParams{
			Principal:  admin,
			ResourceID: "missing",
			Input:      ResourceInput{Code: "DESK-001", Capacity: 1},
		})

		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRegistryService_ListResources(t *testing.T) {
	desk := booking.Resource{ID: "r1", Code: "DESK-001", Kind: booking.KindDesk, Capacity: 1, State: booking.StateActive}
	room := booking.Resource{ID: "r2", Code: "ROOM-001", Kind: booking.KindRoom, Capacity: 6, State: booking.StateActive}
	svc := newRegistryService(newMemResourceRepo(desk, room), newMemReservationRepo())

	t.Run("filters by kind", func(t *testing.T) {
		resources, err := svc.ListResources(context.Background(), Principal{UserID: "u1"}, booking.KindRoom)
		if err != nil {
			t.Fatalf("ListResources: %v", err)
		}
		if len(resources) != 1 || resources[0].ID != "r2" {
			t.Fatalf("unexpected result: %+v", resources)
		}
	})

	t.Run("rejects unknown kinds", func(t *testing.T) {
		_, err := svc.ListResources(context.Background(), Principal{UserID: "u1"}, "locker")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestRegistryService_SetAdministrativeState(t *testing.T) {
	admin := Principal{UserID: "admin-1", IsAdmin: true}
	resource := booking.Resource{
		ID: "resource-1", Code: "ROOM-001", Kind: booking.KindRoom,
		Capacity: 6, State: booking.StateActive,
	}
	future := booking.Window{StartDate: "2025-03-11", EndDate: "2025-03-11", StartTime: "09:00", EndTime: "10:00"}
	past := booking.Window{StartDate: "2025-03-01", EndDate: "2025-03-01", StartTime: "09:00", EndTime: "10:00"}

	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := newRegistryService(newMemResourceRepo(resource), newMemReservationRepo())

		_, _, err := svc.SetAdministrativeState(context.Background(), SetResourceStateParams{
			Principal:  Principal{UserID: "user-1"},
			ResourceID: "resource-1",
			State:      booking.StateMaintenance,
		})

		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("cancels live reservations when leaving active service", func(t *testing.T) {
		pending := booking.Reservation{ID: "res-1", ResourceID: "resource-1", RequesterID: "u1", Window: future, Status: booking.StatusPending}
		confirmed := booking.Reservation{ID: "res-2", ResourceID: "resource-1", RequesterID: "u2", Window: future, Status: booking.StatusConfirmed}
		elapsed := booking.Reservation{ID: "res-3", ResourceID: "resource-1", RequesterID: "u3", Window: past, Status: booking.StatusConfirmed}
		rejected := booking.Reservation{ID: "res-4", ResourceID: "resource-1", RequesterID: "u4", Window: future, Status: booking.StatusRejected}

		reservations := newMemReservationRepo(pending, confirmed, elapsed, rejected)
		svc := newRegistryService(newMemResourceRepo(resource), reservations)

		updated, cancelled, err := svc.SetAdministrativeState(context.Background(), SetResourceStateParams{
			Principal:  admin,
			ResourceID: "resource-1",
			State:      booking.StateRetired,
		})
		if err != nil {
			t.Fatalf("SetAdministrativeState: %v", err)
		}
		if updated.State != booking.StateRetired {
			t.Errorf("expected retired state, got %q", updated.State)
		}
		if cancelled != 2 {
			t.Fatalf("expected 2 cancellations, got %d", cancelled)
		}

		for _, id := range []string{"res-1", "res-2"} {
			got := reservations.get(id)
			if got.Status != booking.StatusCancelled {
				t.Errorf("%s: expected cancelled, got %q", id, got.Status)
			}
			if got.Reason == nil || *got.Reason != "resource decommissioned" {
				t.Errorf("%s: expected decommission reason, got %v", id, got.Reason)
			}
		}
		if got := reservations.get("res-3"); got.Status != booking.StatusConfirmed {
			t.Errorf("elapsed reservation must keep its status, got %q", got.Status)
		}
		if got := reservations.get("res-4"); got.Status != booking.StatusRejected {
			t.Errorf("terminal reservation must keep its status, got %q", got.Status)
		}
	})

	t.Run("reactivation cancels nothing", func(t *testing.T) {
		maintained := resource
		maintained.State = booking.StateMaintenance
		pending := booking.Reservation{ID: "res-1", ResourceID: "resource-1", RequesterID: "u1", Window: future, Status: booking.StatusPending}

		reservations := newMemReservationRepo(pending)
		svc := newRegistryService(newMemResourceRepo(maintained), reservations)

		updated, cancelled, err := svc.SetAdministrativeState(context.Background(), SetResourceStateParams{
			Principal:  admin,
			ResourceID: "resource-1",
			State:      booking.StateActive,
		})
		if err != nil {
			t.Fatalf("SetAdministrativeState: %v", err)
		}
		if updated.State != booking.StateActive || cancelled != 0 {
			t.Fatalf("unexpected outcome: state=%q cancelled=%d", updated.State, cancelled)
		}
		if got := reservations.get("res-1"); got.Status != booking.StatusPending {
			t.Errorf("expected pending reservation untouched, got %q", got.Status)
		}
	})

	t.Run("rejects unknown states", func(t *testing.T) {
		svc := newRegistryService(newMemResourceRepo(resource), newMemReservationRepo())

		_, _, err := svc.SetAdministrativeState(context.Background(), SetResourceStateParams{
			Principal:  admin,
			ResourceID: "resource-1",
			State:      "scrapped",
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/facility-reservations/internal/booking"
	"github.com/example/facility-reservations/internal/persistence"
	"github.com/example/facility-reservations/internal/persistence/sqlite"
	"github.com/example/facility-reservations/internal/testfixtures"
)

func openStorage(t *testing.T) *sqlite.Storage {
	t.Helper()
	storage, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := storage.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return storage
}

func TestResourceRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips a resource", func(t *testing.T) {
		storage := openStorage(t)

		record := testfixtures.NewResourceFixture(testfixtures.WithResourceKind(booking.KindRoom, 12)).Persistence()
		attributes := `{"floor":3}`
		record.Attributes = &attributes

		if err := storage.CreateResource(ctx, record); err != nil {
			t.Fatalf("CreateResource: %v", err)
		}

		stored, err := storage.GetResource(ctx, record.ID)
		if err != nil {
			t.Fatalf("GetResource: %v", err)
		}
		if stored.Code != record.Code || stored.Kind != "room" || stored.Capacity != 12 {
			t.Errorf("unexpected record: %+v", stored)
		}
		if stored.Attributes == nil || *stored.Attributes != attributes {
			t.Errorf("unexpected attributes: %v", stored.Attributes)
		}
		if !stored.CreatedAt.Equal(record.CreatedAt) {
			t.Errorf("created_at changed: %v != %v", stored.CreatedAt, record.CreatedAt)
		}
	})

	t.Run("rejects duplicate codes within a kind", func(t *testing.T) {
		storage := openStorage(t)

		first := testfixtures.NewResourceFixture(testfixtures.WithResourceCode("DESK-A1")).Persistence()
		if err := storage.CreateResource(ctx, first); err != nil {
			t.Fatalf("CreateResource: %v", err)
		}

		duplicate := testfixtures.NewResourceFixture(testfixtures.WithResourceCode("DESK-A1")).Persistence()
		if err := storage.CreateResource(ctx, duplicate); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}

		sameCodeOtherKind := testfixtures.NewResourceFixture(
			testfixtures.WithResourceCode("DESK-A1"),
			testfixtures.WithResourceKind(booking.KindParkingSlot, 1),
		).Persistence()
		if err := storage.CreateResource(ctx, sameCodeOtherKind); err != nil {
			t.Fatalf("CreateResource for other kind: %v", err)
		}
	})

	t.Run("rejects non positive capacity", func(t *testing.T) {
		storage := openStorage(t)

		record := testfixtures.NewResourceFixture().Persistence()
		record.Capacity = 0
		if err := storage.CreateResource(ctx, record); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("reports missing rows on update", func(t *testing.T) {
		storage := openStorage(t)

		record := testfixtures.NewResourceFixture().Persistence()
		if err := storage.UpdateResource(ctx, record); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("lists by kind in code order", func(t *testing.T) {
		storage := openStorage(t)

		for _, code := range []string{"ROOM-B", "ROOM-A"} {
			record := testfixtures.NewResourceFixture(
				testfixtures.WithResourceCode(code),
				testfixtures.WithResourceKind(booking.KindRoom, 8),
			).Persistence()
			if err := storage.CreateResource(ctx, record); err != nil {
				t.Fatalf("CreateResource %s: %v", code, err)
			}
		}
		desk := testfixtures.NewResourceFixture().Persistence()
		if err := storage.CreateResource(ctx, desk); err != nil {
			t.Fatalf("CreateResource desk: %v", err)
		}

		rooms, err := storage.ListResources(ctx, "room")
		if err != nil {
			t.Fatalf("ListResources: %v", err)
		}
		if len(rooms) != 2 || rooms[0].Code != "ROOM-A" || rooms[1].Code != "ROOM-B" {
			t.Errorf("unexpected listing: %+v", rooms)
		}

		all, err := storage.ListResources(ctx, "")
		if err != nil {
			t.Fatalf("ListResources all: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 resources, got %d", len(all))
		}
	})
}

func TestReservationRepository(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, storage *sqlite.Storage) (resourceID, requesterID string) {
		t.Helper()
		user := testfixtures.NewUserFixture()
		if err := storage.CreateUser(ctx, user.Persistence()); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		resource := testfixtures.NewResourceFixture()
		if err := storage.CreateResource(ctx, resource.Persistence()); err != nil {
			t.Fatalf("CreateResource: %v", err)
		}
		return resource.ID, user.ID
	}

	t.Run("rejects reservations for unknown resources", func(t *testing.T) {
		storage := openStorage(t)
		_, requesterID := seed(t, storage)

		record := testfixtures.NewReservationFixture(
			testfixtures.WithReservationResource("missing"),
			testfixtures.WithReservationRequester(requesterID),
		).Persistence()

		if err := storage.CreateReservation(ctx, record); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
		}
	})

	t.Run("round trips status and reason updates", func(t *testing.T) {
		storage := openStorage(t)
		resourceID, requesterID := seed(t, storage)

		record := testfixtures.NewReservationFixture(
			testfixtures.WithReservationResource(resourceID),
			testfixtures.WithReservationRequester(requesterID),
		).Persistence()
		if err := storage.CreateReservation(ctx, record); err != nil {
			t.Fatalf("CreateReservation: %v", err)
		}

		reason := "double booked"
		record.Status = string(booking.StatusRejected)
		record.Reason = &reason
		record.UpdatedAt = record.UpdatedAt.Add(time.Minute)
		if err := storage.UpdateReservation(ctx, record); err != nil {
			t.Fatalf("UpdateReservation: %v", err)
		}

		stored, err := storage.GetReservation(ctx, record.ID)
		if err != nil {
			t.Fatalf("GetReservation: %v", err)
		}
		if stored.Status != "rejected" {
			t.Errorf("unexpected status: %s", stored.Status)
		}
		if stored.Reason == nil || *stored.Reason != reason {
			t.Errorf("unexpected reason: %v", stored.Reason)
		}
	})

	t.Run("filters by status and active cutoff", func(t *testing.T) {
		storage := openStorage(t)
		resourceID, requesterID := seed(t, storage)

		elapsed := testfixtures.NewReservationFixture(
			testfixtures.WithReservationResource(resourceID),
			testfixtures.WithReservationRequester(requesterID),
			testfixtures.WithReservationStatus(booking.StatusConfirmed),
			testfixtures.WithReservationWindow(booking.Window{
				StartDate: "2025-03-10", EndDate: "2025-03-10",
				StartTime: "09:00", EndTime: "10:00",
			}),
		)
		upcoming := testfixtures.NewReservationFixture(
			testfixtures.WithReservationResource(resourceID),
			testfixtures.WithReservationRequester(requesterID),
			testfixtures.WithReservationStatus(booking.StatusConfirmed),
			testfixtures.WithReservationWindow(booking.Window{
				StartDate: "2025-03-12", EndDate: "2025-03-12",
				StartTime: "09:00", EndTime: "18:00",
			}),
		)
		rejected := testfixtures.NewReservationFixture(
			testfixtures.WithReservationResource(resourceID),
			testfixtures.WithReservationRequester(requesterID),
			testfixtures.WithReservationStatus(booking.StatusRejected),
			testfixtures.WithReservationWindow(booking.Window{
				StartDate: "2025-03-12", EndDate: "2025-03-12",
				StartTime: "09:00", EndTime: "18:00",
			}),
		)
		for _, fixture := range []testfixtures.ReservationFixture{elapsed, upcoming, rejected} {
			if err := storage.CreateReservation(ctx, fixture.Persistence()); err != nil {
				t.Fatalf("CreateReservation %s: %v", fixture.ID, err)
			}
		}

		active, err := storage.ListReservations(ctx, persistence.ReservationFilter{
			ResourceID: resourceID,
			Statuses:   []string{"pending", "confirmed"},
			ActiveAt:   &persistence.ActiveCutoff{Date: "2025-03-10", Time: "12:00"},
		})
		if err != nil {
			t.Fatalf("ListReservations: %v", err)
		}
		if len(active) != 1 || active[0].ID != upcoming.ID {
			t.Errorf("unexpected active set: %+v", active)
		}
	})
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes email on lookup", func(t *testing.T) {
		storage := openStorage(t)

		user := testfixtures.NewUserFixture(testfixtures.WithUserEmail("Mixed.Case@Example.com"))
		if err := storage.CreateUser(ctx, user.Persistence()); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		stored, err := storage.GetUserByEmail(ctx, " mixed.case@example.com ")
		if err != nil {
			t.Fatalf("GetUserByEmail: %v", err)
		}
		if stored.ID != user.ID {
			t.Errorf("unexpected user: %+v", stored)
		}
	})

	t.Run("rejects duplicate emails", func(t *testing.T) {
		storage := openStorage(t)

		first := testfixtures.NewUserFixture(testfixtures.WithUserEmail("shared@example.com"))
		if err := storage.CreateUser(ctx, first.Persistence()); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		second := testfixtures.NewUserFixture(testfixtures.WithUserEmail("Shared@Example.com"))
		if err := storage.CreateUser(ctx, second.Persistence()); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("deleting a user removes their sessions", func(t *testing.T) {
		storage := openStorage(t)
		clock := testfixtures.NewClock(time.Time{})
		tokens := testfixtures.NewIDGenerator("token")

		user := testfixtures.NewUserFixture()
		if err := storage.CreateUser(ctx, user.Persistence()); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		token := tokens.Next()
		_, err := storage.CreateSession(ctx, persistence.Session{
			ID:        "session-1",
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: clock.Now().Add(time.Hour),
			CreatedAt: clock.Now(),
			UpdatedAt: clock.Now(),
		})
		if err != nil {
			t.Fatalf("CreateSession: %v", err)
		}

		if err := storage.DeleteUser(ctx, user.ID); err != nil {
			t.Fatalf("DeleteUser: %v", err)
		}
		if _, err := storage.GetSession(ctx, token); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after cascade, got %v", err)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*sqlite.Storage, *testfixtures.Clock, persistence.Session) {
		t.Helper()
		storage := openStorage(t)
		clock := testfixtures.NewClock(time.Time{})

		user := testfixtures.NewUserFixture()
		if err := storage.CreateUser(ctx, user.Persistence()); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		session, err := storage.CreateSession(ctx, persistence.Session{
			ID:        "session-1",
			UserID:    user.ID,
			Token:     "token-original",
			ExpiresAt: clock.Now().Add(time.Hour),
			CreatedAt: clock.Now(),
			UpdatedAt: clock.Now(),
		})
		if err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
		return storage, clock, session
	}

	t.Run("rotates tokens under a stable id", func(t *testing.T) {
		storage, clock, session := setup(t)

		session.Token = "token-rotated"
		session.ExpiresAt = clock.Advance(time.Hour).Add(time.Hour)
		session.UpdatedAt = clock.Now()
		if _, err := storage.UpdateSession(ctx, session); err != nil {
			t.Fatalf("UpdateSession: %v", err)
		}

		if _, err := storage.GetSession(ctx, "token-original"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected old token gone, got %v", err)
		}
		rotated, err := storage.GetSession(ctx, "token-rotated")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if rotated.ID != session.ID {
			t.Errorf("session id changed: %s", rotated.ID)
		}
	})

	t.Run("records revocation", func(t *testing.T) {
		storage, clock, session := setup(t)

		revoked, err := storage.RevokeSession(ctx, session.Token, clock.Advance(time.Minute))
		if err != nil {
			t.Fatalf("RevokeSession: %v", err)
		}
		if revoked.RevokedAt == nil {
			t.Fatal("expected revoked_at to be set")
		}

		stored, err := storage.GetSession(ctx, session.Token)
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if stored.RevokedAt == nil || !stored.RevokedAt.Equal(*revoked.RevokedAt) {
			t.Errorf("unexpected revoked_at: %v", stored.RevokedAt)
		}
	})

	t.Run("prunes expired sessions", func(t *testing.T) {
		storage, clock, session := setup(t)

		if err := storage.DeleteExpiredSessions(ctx, clock.Now()); err != nil {
			t.Fatalf("DeleteExpiredSessions: %v", err)
		}
		if _, err := storage.GetSession(ctx, session.Token); err != nil {
			t.Fatalf("live session should survive pruning: %v", err)
		}

		clock.Advance(2 * time.Hour)
		if err := storage.DeleteExpiredSessions(ctx, clock.Now()); err != nil {
			t.Fatalf("DeleteExpiredSessions: %v", err)
		}
		if _, err := storage.GetSession(ctx, session.Token); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after pruning, got %v", err)
		}
	})
}

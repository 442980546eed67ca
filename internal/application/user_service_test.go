package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// memUserRepo is a mutex protected in-memory UserRepository.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]UserCredentials

	createErr error
	updateErr error
}

func newMemUserRepo(users ...UserCredentials) *memUserRepo {
	repo := &memUserRepo{users: make(map[string]UserCredentials)}
	for _, user := range users {
		repo.users[user.User.ID] = user
	}
	return repo
}

func (r *memUserRepo) CreateUser(ctx context.Context, user UserCredentials) (UserCredentials, error) {
	if r.createErr != nil {
		return UserCredentials{}, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.User.ID] = user
	return user, nil
}

func (r *memUserRepo) GetUser(ctx context.Context, id string) (UserCredentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return UserCredentials{}, ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetUserByEmail(ctx context.Context, email string) (UserCredentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.User.Email, email) {
			return user, nil
		}
	}
	return UserCredentials{}, ErrNotFound
}

func (r *memUserRepo) UpdateUser(ctx context.Context, user UserCredentials) (UserCredentials, error) {
	if r.updateErr != nil {
		return UserCredentials{}, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.User.ID]; !ok {
		return UserCredentials{}, ErrNotFound
	}
	r.users[user.User.ID] = user
	return user, nil
}

func (r *memUserRepo) DeleteUser(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) ListUsers(ctx context.Context) ([]UserCredentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []UserCredentials
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *memUserRepo) get(id string) UserCredentials {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

var userNow = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func TestUserService_CreateUser(t *testing.T) {
	admin := Principal{UserID: "admin-1", IsAdmin: true}

	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewUserService(nil, nil, nil)

		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: Principal{UserID: "user-1"},
			Input:     UserInput{Email: "a@example.com", DisplayName: "A", Password: "correct horse"},
		})

		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates required attributes", func(t *testing.T) {
		svc := NewUserService(nil, nil, nil)

		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: admin,
			Input:     UserInput{Email: "not-an-email", DisplayName: "  ", Password: "short"},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"email", "display_name", "password"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected field error for %q", field)
			}
		}
	})

	t.Run("normalises email and stores a hash", func(t *testing.T) {
		repo := newMemUserRepo()
		svc := NewUserService(repo, func() string { return "user-1" }, fixedNow(userNow))

		user, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: admin,
			Input:     UserInput{Email: "  Alice@Example.COM ", DisplayName: "Alice", Password: "correct horse"},
		})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		if user.Email != "alice@example.com" {
			t.Errorf("expected lowercased email, got %q", user.Email)
		}

		stored := repo.get("user-1")
		if stored.PasswordHash == "" || stored.PasswordHash == "correct horse" {
			t.Fatalf("expected stored password hash, got %q", stored.PasswordHash)
		}
		if err := VerifyPassword(stored.PasswordHash, "correct horse"); err != nil {
			t.Errorf("stored hash does not verify: %v", err)
		}
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	admin := Principal{UserID: "admin-1", IsAdmin: true}
	existing := UserCredentials{
		User:         User{ID: "user-1", Email: "a@example.com", DisplayName: "A"},
		PasswordHash: "existing-hash",
	}

	t.Run("empty password keeps the stored hash", func(t *testing.T) {
		repo := newMemUserRepo(existing)
		svc := NewUserService(repo, nil, fixedNow(userNow))

		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: admin,
			UserID:    "user-1",
			Input:     UserInput{Email: "a@example.com", DisplayName: "Alice"},
		})
		if err != nil {
			t.Fatalf("UpdateUser: %v", err)
		}

		stored := repo.get("user-1")
		if stored.PasswordHash != "existing-hash" {
			t.Errorf("expected hash untouched, got %q", stored.PasswordHash)
		}
		if stored.User.DisplayName != "Alice" {
			t.Errorf("expected display name updated, got %q", stored.User.DisplayName)
		}
	})

	t.Run("password reset clears a login lockout", func(t *testing.T) {
		locked := existing
		locked.Disabled = true
		locked.FailedAttempts = maxFailedAttempts
		failedAt := userNow.Add(-time.Hour)
		locked.LastFailedAt = &failedAt
		repo := newMemUserRepo(locked)
		svc := NewUserService(repo, nil, fixedNow(userNow))

		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: admin,
			UserID:    "user-1",
			Input:     UserInput{Email: "a@example.com", DisplayName: "A", Password: "fresh password"},
		})
		if err != nil {
			t.Fatalf("UpdateUser: %v", err)
		}

		stored := repo.get("user-1")
		if stored.Disabled {
			t.Error("expected account re-enabled")
		}
		if stored.FailedAttempts != 0 || stored.LastFailedAt != nil {
			t.Errorf("expected failure state cleared, got %d / %v", stored.FailedAttempts, stored.LastFailedAt)
		}
		if stored.PasswordHash == "existing-hash" {
			t.Error("expected a new password hash")
		}
	})

	t.Run("reports missing users", func(t *testing.T) {
		svc := NewUserService(newMemUserRepo(), nil, nil)

		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: admin,
			UserID:    "missing",
			Input:     UserInput{Email: "a@example.com", DisplayName: "A"},
		})

		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserService_GetUser(t *testing.T) {
	existing := UserCredentials{User: User{ID: "user-1", Email: "a@example.com", DisplayName: "A"}}
	svc := NewUserService(newMemUserRepo(existing), nil, nil)

	t.Run("users may read their own record", func(t *testing.T) {
		user, err := svc.GetUser(context.Background(), Principal{UserID: "user-1"}, "user-1")
		if err != nil {
			t.Fatalf("GetUser: %v", err)
		}
		if user.ID != "user-1" {
			t.Fatalf("unexpected user: %+v", user)
		}
	})

	t.Run("users may not read other records", func(t *testing.T) {
		_, err := svc.GetUser(context.Background(), Principal{UserID: "user-2"}, "user-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestUserService_ListUsers(t *testing.T) {
	admin := Principal{UserID: "admin-1", IsAdmin: true}
	svc := NewUserService(newMemUserRepo(
		UserCredentials{User: User{ID: "u2", Email: "beta@example.com"}},
		UserCredentials{User: User{ID: "u1", Email: "alpha@example.com"}},
	), nil, nil)

	users, err := svc.ListUsers(context.Background(), admin)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 || users[0].Email != "alpha@example.com" {
		t.Fatalf("expected users ordered by email, got %+v", users)
	}
}

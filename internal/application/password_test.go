package application

import (
	"errors"
	"strings"
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	t.Run("hash verifies against the original password", func(t *testing.T) {
		hash, err := CreatePasswordHash("correct horse")
		if err != nil {
			t.Fatalf("CreatePasswordHash returned error: %v", err)
		}
		if !strings.HasPrefix(hash, "$argon2id$") {
			t.Fatalf("unexpected hash encoding: %q", hash)
		}
		if err := VerifyPassword(hash, "correct horse"); err != nil {
			t.Fatalf("VerifyPassword rejected matching password: %v", err)
		}
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		hash, err := CreatePasswordHash("correct horse")
		if err != nil {
			t.Fatalf("CreatePasswordHash returned error: %v", err)
		}
		if err := VerifyPassword(hash, "battery staple"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("malformed hash is rejected", func(t *testing.T) {
		if err := VerifyPassword("not-a-hash", "anything"); !errors.Is(err, ErrInvalidPasswordHash) {
			t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
		}
	})

	t.Run("unknown version is rejected", func(t *testing.T) {
		hash := "$argon2id$v=18$m=65536,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"
		if err := VerifyPassword(hash, "anything"); !errors.Is(err, ErrIncompatiblePasswordVersion) {
			t.Fatalf("expected ErrIncompatiblePasswordVersion, got %v", err)
		}
	})
}

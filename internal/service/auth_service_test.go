package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/divvyapp/divvy/internal/auth"
	"github.com/divvyapp/divvy/internal/storage/sqlite"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret-key-for-tests-only", time.Hour)
	return NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default())
}

func TestAuthService(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	t.Run("Register returns user and token", func(t *testing.T) {
		user, token, err := svc.Register(ctx, "alice@example.com", "Alice", "correct-horse")
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if user.ID == "" {
			t.Error("Expected user ID to be generated")
		}
		if token == "" {
			t.Error("Expected a session token")
		}
		if user.PasswordHash == "correct-horse" {
			t.Error("Expected password to be hashed")
		}

		me, err := svc.CurrentUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("CurrentUser failed: %v", err)
		}
		if me.Email != "alice@example.com" {
			t.Errorf("Expected alice@example.com, got %s", me.Email)
		}
	})

	t.Run("Register rejects weak passwords", func(t *testing.T) {
		_, _, err := svc.Register(ctx, "weak@example.com", "Weak", "short")
		if !errors.Is(err, auth.ErrWeakPassword) {
			t.Errorf("Expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("Register rejects duplicate emails", func(t *testing.T) {
		if _, _, err := svc.Register(ctx, "dup@example.com", "First", "correct-horse"); err != nil {
			t.Fatalf("First Register failed: %v", err)
		}
		_, _, err := svc.Register(ctx, "dup@example.com", "Second", "correct-horse")
		if !errors.Is(err, auth.ErrEmailExists) {
			t.Errorf("Expected ErrEmailExists, got %v", err)
		}
	})

	t.Run("Register requires email and display name", func(t *testing.T) {
		if _, _, err := svc.Register(ctx, "", "Alice", "correct-horse"); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput for empty email, got %v", err)
		}
		if _, _, err := svc.Register(ctx, "x@example.com", "", "correct-horse"); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput for empty display name, got %v", err)
		}
	})

	t.Run("Login verifies credentials", func(t *testing.T) {
		if _, _, err := svc.Register(ctx, "login@example.com", "Login", "correct-horse"); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		user, token, err := svc.Login(ctx, "login@example.com", "correct-horse")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if user.Email != "login@example.com" || token == "" {
			t.Errorf("Expected user and token, got %v %q", user, token)
		}

		if _, _, err := svc.Login(ctx, "login@example.com", "wrong-password"); !errors.Is(err, auth.ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
		if _, _, err := svc.Login(ctx, "ghost@example.com", "correct-horse"); !errors.Is(err, auth.ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials for unknown email, got %v", err)
		}
	})
}

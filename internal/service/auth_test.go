package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sgprime/sgprime/internal/model"
	"github.com/sgprime/sgprime/internal/store"
)

const testPassword = "admin123"

func newTestAuth(t *testing.T) (*AuthService, *store.Store, *model.Admin) {
	t.Helper()

	s, err := store.Open(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	hash, err := HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &model.Admin{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	auth, err := NewAuthService(s, AuthConfig{Secret: "test-secret"}, slog.Default())
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return auth, s, admin
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	if _, err := NewAuthService(nil, AuthConfig{}, nil); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestLoginSuccess(t *testing.T) {
	auth, s, admin := newTestAuth(t)
	ctx := context.Background()

	token, principal, err := auth.Login(ctx, "admin", testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("Login returned empty token")
	}
	if principal.ID != admin.ID || principal.Username != "admin" || principal.Role != model.RoleAdmin {
		t.Fatalf("principal = %+v", principal)
	}

	// Login records last_login_at.
	stored, err := s.GetActiveAdmin(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetActiveAdmin: %v", err)
	}
	if stored.LastLoginAt == nil {
		t.Fatal("last login not recorded")
	}

	// The minted token round-trips through validation.
	got, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if got.ID != admin.ID || got.Username != "admin" {
		t.Fatalf("validated principal = %+v", got)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	auth, _, _ := newTestAuth(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown username", "nosuchuser", testPassword},
		{"wrong password", "admin", "wrongpassword"},
		{"empty password", "admin", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := auth.Login(ctx, tt.username, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	auth, s, _ := newTestAuth(t)
	ctx := context.Background()

	hash, _ := HashPassword("secret99")
	inactive := &model.Admin{
		Username:     "former",
		PasswordHash: hash,
		IsActive:     false,
	}
	if err := s.CreateAdmin(ctx, inactive); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	if _, _, err := auth.Login(ctx, "former", "secret99"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("inactive login: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateTokenRejections(t *testing.T) {
	auth, _, _ := newTestAuth(t)
	ctx := context.Background()

	token, _, err := auth.Login(ctx, "admin", testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Foreign signing key.
	otherStore, err := store.Open(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { otherStore.Close() })
	other, err := NewAuthService(otherStore, AuthConfig{Secret: "another-secret"}, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	tests := []struct {
		name  string
		check func() error
	}{
		{"garbage token", func() error { _, err := auth.ValidateToken("not.a.token"); return err }},
		{"empty token", func() error { _, err := auth.ValidateToken(""); return err }},
		{"wrong secret", func() error { _, err := other.ValidateToken(token); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.check(); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestValidateTokenExpiry(t *testing.T) {
	s, err := store.Open(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	hash, _ := HashPassword(testPassword)
	admin := &model.Admin{Username: "admin", PasswordHash: hash, IsActive: true}
	if err := s.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	auth, err := NewAuthService(s, AuthConfig{Secret: "test-secret", TokenTTL: time.Nanosecond}, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	token, _, err := auth.Login(context.Background(), "admin", testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := auth.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: err = %v, want ErrInvalidToken", err)
	}
}

func TestChangePassword(t *testing.T) {
	auth, _, admin := newTestAuth(t)
	ctx := context.Background()

	if err := auth.ChangePassword(ctx, admin.ID, "wrongcurrent", "newpassword1"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("wrong current: err = %v, want ErrPasswordMismatch", err)
	}
	if err := auth.ChangePassword(ctx, admin.ID, testPassword, "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("short new: err = %v, want ErrPasswordTooShort", err)
	}
	if err := auth.ChangePassword(ctx, 9999, testPassword, "newpassword1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing admin: err = %v, want store.ErrNotFound", err)
	}

	if err := auth.ChangePassword(ctx, admin.ID, testPassword, "newpassword1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	// Old password no longer works, new one does.
	if _, _, err := auth.Login(ctx, "admin", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: err = %v", err)
	}
	if _, _, err := auth.Login(ctx, "admin", "newpassword1"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
	if err := VerifyPassword("", "anything"); err == nil {
		t.Fatal("expected error for empty hash")
	}
}

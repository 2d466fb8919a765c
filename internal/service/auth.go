package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sgprime/sgprime/internal/model"
	"github.com/sgprime/sgprime/internal/store"
)

// Auth errors returned to handlers. ErrInvalidCredentials deliberately
// covers unknown usernames, wrong passwords, and deactivated accounts so
// the login endpoint cannot be used to probe which usernames exist.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPasswordMismatch   = errors.New("current password is incorrect")
	ErrPasswordTooShort   = errors.New("password too short")
)

// passwordCost is the bcrypt work factor for stored password hashes.
const passwordCost = 12

const tokenIssuer = "sgprime"

// Principal identifies the authenticated admin a token was minted for.
type Principal struct {
	ID       int64
	Username string
	Role     string
}

// AuthConfig carries the token signing settings.
type AuthConfig struct {
	// Secret signs and verifies tokens. Must not be empty.
	Secret string
	// TokenTTL is how long issued tokens stay valid. Defaults to 24h.
	TokenTTL time.Duration
	// MinPasswordLength is the floor enforced on password changes.
	// Defaults to 6.
	MinPasswordLength int
}

// AuthService authenticates admins and mints and verifies session tokens.
type AuthService struct {
	store  *store.Store
	cfg    AuthConfig
	logger *slog.Logger
}

type jwtClaims struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewAuthService builds an AuthService. An empty secret is an error: a
// guessable default would make every deployment's tokens forgeable.
func NewAuthService(s *store.Store, cfg AuthConfig, logger *slog.Logger) (*AuthService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: JWT secret must not be empty")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = 6
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{store: s, cfg: cfg, logger: logger}, nil
}

// MinPasswordLength returns the configured password length floor.
func (a *AuthService) MinPasswordLength() int {
	return a.cfg.MinPasswordLength
}

// Login verifies the username/password pair and returns a signed token plus
// the authenticated principal. All failure modes surface as
// ErrInvalidCredentials; only infrastructure failures return anything else.
func (a *AuthService) Login(ctx context.Context, username, password string) (string, *Principal, error) {
	admin, err := a.store.GetActiveAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a bcrypt comparison anyway so response timing does not
			// distinguish unknown usernames from wrong passwords.
			VerifyPassword(timingDummyHash, password)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login lookup: %w", err)
	}

	if err := VerifyPassword(admin.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := a.mintToken(admin)
	if err != nil {
		return "", nil, fmt.Errorf("mint token: %w", err)
	}

	// Best effort: a failed timestamp write must not fail the login.
	if err := a.store.UpdateAdminLastLogin(ctx, admin.ID); err != nil {
		a.logger.Warn("failed to record last login", "admin_id", admin.ID, "error", err)
	}

	return token, &Principal{ID: admin.ID, Username: admin.Username, Role: admin.Role}, nil
}

// timingDummyHash is a valid bcrypt hash of a random string, used only to
// equalize login timing when the username does not exist.
const timingDummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

func (a *AuthService) mintToken(admin *model.Admin) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		ID:       admin.ID,
		Username: admin.Username,
		Role:     admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.cfg.Secret))
}

// ValidateToken parses and verifies a token string and returns the principal
// it carries. Expired, malformed, and foreign-signed tokens all come back
// as ErrInvalidToken.
func (a *AuthService) ValidateToken(tokenString string) (*Principal, error) {
	var claims jwtClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &Principal{ID: claims.ID, Username: claims.Username, Role: claims.Role}, nil
}

// ChangePassword verifies the current password for the admin identified by
// id and replaces it with newPassword. Returns ErrPasswordMismatch when the
// current password does not verify and ErrPasswordTooShort when the new one
// is below the configured floor.
func (a *AuthService) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	if len(newPassword) < a.cfg.MinPasswordLength {
		return ErrPasswordTooShort
	}

	admin, err := a.store.GetActiveAdmin(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return fmt.Errorf("change password lookup: %w", err)
	}

	if err := VerifyPassword(admin.PasswordHash, currentPassword); err != nil {
		return ErrPasswordMismatch
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := a.store.UpdateAdminPassword(ctx, id, hash); err != nil {
		return fmt.Errorf("store new password: %w", err)
	}
	return nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password with a stored bcrypt hash.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Storage keys used by Model.
const (
	KeyToken    = "token"
	KeyUserID   = "userId"
	KeyUserName = "userName"
)

// MinPasswordLength is the shortest password the story API accepts.
const MinPasswordLength = 8

var (
	// ErrUnauthorized is returned when the remote API rejects the
	// credentials or token.
	ErrUnauthorized = errors.New("unauthorized: authentication required")

	// ErrMissingCredentials is returned when a required form field is empty.
	ErrMissingCredentials = errors.New("auth: name, email and password are required")

	// ErrPasswordTooShort is returned by Register for short passwords.
	ErrPasswordTooShort = fmt.Errorf("auth: password must be at least %d characters", MinPasswordLength)
)

// Principal is the signed-in identity.
type Principal struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

// Storage is the client key/value storage the model persists into.
// *session.Session satisfies it.
type Storage interface {
	GetString(key string) string
	SetString(key, value string)
	Delete(key string)
}

// Authenticator talks to the remote identity endpoints.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (Principal, error)
	Register(ctx context.Context, name, email, password string) error
}

// Model holds the authentication state of one client.
type Model struct {
	store  Storage
	api    Authenticator
	logger *slog.Logger
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) ModelOption {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewModel creates a model over client storage and an authenticator.
func NewModel(store Storage, api Authenticator, opts ...ModelOption) *Model {
	m := &Model{
		store:  store,
		api:    api,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "auth")
	return m
}

// IsAuthenticated reports whether a token is stored.
func (m *Model) IsAuthenticated() bool {
	return m.store.GetString(KeyToken) != ""
}

// Token returns the stored bearer token, or "".
func (m *Model) Token() string {
	return m.store.GetString(KeyToken)
}

// Principal returns the stored identity.
func (m *Model) Principal() (Principal, bool) {
	p := Principal{
		UserID: m.store.GetString(KeyUserID),
		Name:   m.store.GetString(KeyUserName),
		Token:  m.store.GetString(KeyToken),
	}
	return p, p.Token != ""
}

// Login authenticates against the API and stores the resulting identity.
func (m *Model) Login(ctx context.Context, email, password string) (Principal, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Principal{}, ErrMissingCredentials
	}

	p, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.logger.Info("login failed", "error", err)
		return Principal{}, err
	}
	if p.Token == "" {
		return Principal{}, fmt.Errorf("auth: login response carried no token: %w", ErrUnauthorized)
	}

	m.store.SetString(KeyToken, p.Token)
	m.store.SetString(KeyUserID, p.UserID)
	m.store.SetString(KeyUserName, p.Name)
	m.logger.Info("logged in", "user_id", p.UserID)
	return p, nil
}

// Register creates an account. It does not sign the user in.
func (m *Model) Register(ctx context.Context, name, email, password string) error {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return ErrMissingCredentials
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if err := m.api.Register(ctx, name, email, password); err != nil {
		m.logger.Info("registration failed", "error", err)
		return err
	}
	return nil
}

// Logout forgets the stored identity.
func (m *Model) Logout() {
	m.store.Delete(KeyToken)
	m.store.Delete(KeyUserID)
	m.store.Delete(KeyUserName)
	m.logger.Info("logged out")
}

// StatusCode returns the HTTP status for an auth error.
// Returns (statusCode, true) for auth errors, (0, false) otherwise.
func StatusCode(err error) (int, bool) {
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized, true
	}
	return 0, false
}

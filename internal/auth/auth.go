// Package auth manages sign-in state: guest sessions and provider
// token sessions, both carried as signed JWTs so a session can be
// resumed across process restarts.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthError wraps a failed sign-in. The user remains unauthenticated.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ErrInvalidToken marks tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("invalid session token")

// User is the signed-in identity exposed to the rest of the app.
type User struct {
	ID          string
	DisplayName string
	Email       string
	Guest       bool
}

// Config controls token issuance and verification.
type Config struct {
	Secret   []byte
	Issuer   string
	TokenTTL time.Duration
	Now      func() time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Guest bool   `json:"guest,omitempty"`
}

// Service holds the current auth state and notifies listeners on every
// change, including the initial state at registration time.
type Service struct {
	cfg Config

	mu        sync.Mutex
	current   *User
	nextID    int
	listeners map[int]func(*User)
}

// NewService builds an auth service. A signing secret is required.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("auth secret is required")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "okrboard"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		cfg:       cfg,
		listeners: make(map[int]func(*User)),
	}, nil
}

// OnAuthStateChanged registers a listener and immediately delivers the
// current state. The returned function unregisters it.
func (s *Service) OnAuthStateChanged(fn func(*User)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// CurrentUser returns the signed-in user, or nil.
func (s *Service) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// SignInAsGuest creates an anonymous session with a fresh stable id
// and returns the user plus a resumable session token.
func (s *Service) SignInAsGuest() (User, string, error) {
	user := User{
		ID:          uuid.NewString(),
		DisplayName: "Guest",
		Guest:       true,
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return User{}, "", &AuthError{Op: "guest sign-in", Err: err}
	}
	s.setCurrent(&user)
	return user, token, nil
}

// SignInWithToken signs in with a provider- or self-issued session
// token. Signature, signing method, and issuer are all checked.
func (s *Service) SignInWithToken(token string) (User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return User{}, &AuthError{Op: "sign-in", Err: ErrInvalidToken}
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithTimeFunc(s.cfg.Now),
	)
	if err != nil {
		return User{}, &AuthError{Op: "sign-in", Err: fmt.Errorf("%w: %v", ErrInvalidToken, err)}
	}
	if claims.Subject == "" {
		return User{}, &AuthError{Op: "sign-in", Err: fmt.Errorf("%w: missing subject", ErrInvalidToken)}
	}

	user := User{
		ID:          claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
		Guest:       claims.Guest,
	}
	s.setCurrent(&user)
	return user, nil
}

// IssueToken mints a signed session token for the given user.
func (s *Service) IssueToken(user User) (string, error) {
	now := s.cfg.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
		Name:  user.DisplayName,
		Email: user.Email,
		Guest: user.Guest,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// SignOut clears the current session.
func (s *Service) SignOut() {
	s.setCurrent(nil)
}

func (s *Service) setCurrent(user *User) {
	s.mu.Lock()
	s.current = user
	fns := make([]func(*User), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

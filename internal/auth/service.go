// Package auth resolves usernames and passwords to accounts. There is no
// separate sign-up: the first login with an unseen username creates it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ayush/potty-buddy/backend/internal/apperr"
	"github.com/ayush/potty-buddy/backend/internal/logging"
	"github.com/ayush/potty-buddy/backend/internal/models"
)

const (
	MaxUsernameLength = 50
	MinPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	SetPasswordHash(ctx context.Context, userID int64, passwordHash string) error
	DeleteUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Outcome says which branch LoginOrRegister took.
type Outcome int

const (
	OutcomeCreated    Outcome = iota + 1 // new account
	OutcomeBackfilled                    // legacy account got its first password
	OutcomeLoggedIn                      // password verified
)

type LoginResult struct {
	User    *models.User
	Outcome Outcome
}

func (r *LoginResult) IsNewUser() bool { return r.Outcome == OutcomeCreated }

// Service implements lookup, login-or-register and administrative delete.
type Service struct {
	users    UserStore
	hasher   Hasher
	throttle Throttle
	logger   logging.Logger
}

// NewService wires the service. A nil throttle disables login throttling.
func NewService(users UserStore, hasher Hasher, throttle Throttle, logger logging.Logger) *Service {
	if throttle == nil {
		throttle = NoopThrottle{}
	}
	return &Service{users: users, hasher: hasher, throttle: throttle, logger: logger}
}

// Lookup reports whether username exists.
func (s *Service) Lookup(ctx context.Context, username string) (*models.User, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, false, apperr.Validation("Username is required")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// LoginOrRegister creates the account on first sight, backfills a password
// for legacy accounts, and otherwise verifies the password.
func (s *Service) LoginOrRegister(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return s.register(ctx, username, password)
	case err != nil:
		return nil, err
	case user.IsLegacy():
		return s.backfill(ctx, user, password)
	default:
		return s.verify(ctx, user, password)
	}
}

// Delete removes the account and, through the foreign key, its events.
func (s *Service) Delete(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.Validation("Username is required")
	}

	user, err := s.users.DeleteUserByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user deleted", "user_id", user.ID)
	return user, nil
}

func validateCredentials(username, password string) error {
	switch {
	case username == "":
		return apperr.Validation("Username is required")
	case password == "":
		return apperr.Validation("Password is required")
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		return apperr.Validation(fmt.Sprintf("Username must be %d characters or less", MaxUsernameLength))
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return apperr.Validation(fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	case len(password) > maxPasswordBytes:
		return apperr.Validation(fmt.Sprintf("Password must be at most %d bytes long", maxPasswordBytes))
	}
	return nil
}

func (s *Service) register(ctx context.Context, username, password string) (*LoginResult, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, username, hash)
	if errors.Is(err, apperr.ErrConflict) {
		// Lost a race with a concurrent first login for the same name.
		return nil, apperr.Conflict("Username already exists")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user created", "user_id", user.ID)
	return &LoginResult{User: user, Outcome: OutcomeCreated}, nil
}

// backfill adopts the supplied password for an account that has none. The
// caller's identity is not checked against anything; such accounts never had
// a secret to check.
func (s *Service) backfill(ctx context.Context, user *models.User, password string) (*LoginResult, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	err = s.users.SetPasswordHash(ctx, user.ID, hash)
	if errors.Is(err, apperr.ErrConflict) {
		// Another request set a password first; this one has to match it.
		current, err := s.users.GetUserByUsername(ctx, user.Username)
		if err != nil {
			return nil, err
		}
		return s.verify(ctx, current, password)
	}
	if err != nil {
		return nil, err
	}

	user.PasswordHash = &hash
	s.logger.Warn(ctx, "legacy account password set on login", "user_id", user.ID)
	return &LoginResult{User: user, Outcome: OutcomeBackfilled}, nil
}

func (s *Service) verify(ctx context.Context, user *models.User, password string) (*LoginResult, error) {
	blocked, err := s.throttle.Blocked(ctx, user.Username)
	if err != nil {
		s.logger.Warn(ctx, "login throttle unavailable", "error", err)
	}
	if blocked {
		return nil, apperr.TooManyAttempts("Too many failed login attempts. Please try again later")
	}

	ok, err := s.hasher.Compare(*user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := s.throttle.RecordFailure(ctx, user.Username); err != nil {
			s.logger.Warn(ctx, "login throttle unavailable", "error", err)
		}
		return nil, apperr.Unauthorized("Invalid username or password")
	}

	if err := s.throttle.Reset(ctx, user.Username); err != nil {
		s.logger.Warn(ctx, "login throttle unavailable", "error", err)
	}
	return &LoginResult{User: user, Outcome: OutcomeLoggedIn}, nil
}

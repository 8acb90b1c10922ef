package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/video-catalog/internal/apperror"
	"github.com/sakif/video-catalog/internal/auth"
	"github.com/sakif/video-catalog/internal/model"
	"github.com/sakif/video-catalog/internal/repository"
)

// MaxUsernameLength matches the users.username column.
const MaxUsernameLength = 150

// AuthService handles account registration and credential checks.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt)
//
// It does not set cookies. Starting and ending sessions is an HTTP concern
// and lives in the handler via auth.SessionManager.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates an account.
//
// Errors:
//   - apperror.ErrValidation: empty username or password, or a value too long
//   - apperror.ErrConflict:   the username is taken (no state change)
//   - apperror.ErrPersistence: storage failure
//
// The existence check runs before hashing so a duplicate never pays the bcrypt
// cost. Two concurrent registrations can both pass it; the UNIQUE constraint
// then rejects the second Insert, which also surfaces as ErrConflict.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	_, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, apperror.DuplicateUsername()
	case !errors.Is(err, apperror.ErrNotFound):
		s.logger.Error("failed to look up username", slog.String("error", err.Error()))
		return nil, apperror.Persistence("registering user", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("Password must be %d bytes or fewer.", auth.MaxPasswordBytes))
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Username: username, PasswordHash: hash}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to insert user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Persistence("registering user", err)
	}

	s.logger.Info("user registered",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login checks a username and password.
//
// An unknown user and a wrong password both yield apperror.InvalidCredentials,
// so the response does not reveal which usernames exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, apperror.InvalidCredentials()
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		s.logger.Error("failed to look up user", slog.String("error", err.Error()))
		return nil, apperror.Persistence("logging in", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			// Corrupt stored hash: still a failed login, but worth an alert.
			s.logger.Error("stored password hash unusable",
				slog.Int64("id", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.InvalidCredentials()
	}

	s.logger.Info("user logged in", slog.String("username", user.Username))
	return user, nil
}

// ListUsers returns every account ordered by id.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, apperror.Persistence("listing users", err)
	}
	return users, nil
}

// EnsureAccount registers username unless it already exists. It reports
// whether an account was created and never changes an existing password.
func (s *AuthService) EnsureAccount(ctx context.Context, username, password string) (bool, error) {
	_, err := s.Register(ctx, username, password)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperror.ErrConflict):
		return false, nil
	default:
		return false, err
	}
}

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return apperror.MissingField("username")
	}
	if password == "" {
		return apperror.MissingField("password")
	}
	if len(username) > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("Username must be %d characters or fewer.", MaxUsernameLength))
	}
	return nil
}

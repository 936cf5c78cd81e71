package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

// Logger defines the logging interface used by the Service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DeviceCleaner removes the listings of a deleted account.
type DeviceCleaner interface {
	DeleteByOwner(ctx context.Context, ownerID string) (int, error)
}

// Service implements registration, login and account management.
type Service struct {
	users   UserRepository
	tokens  *TokenIssuer
	devices  DeviceCleaner
	logger   Logger
	handlers []EventHandler
	now      func() time.Time
}

// NewService creates an account service. devices may be nil, in which case
// deleting an account leaves its listings in place.
func NewService(users UserRepository, tokens *TokenIssuer, devices DeviceCleaner) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		devices: devices,
		logger:  noopLogger{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// AddEventHandler registers an observer of account events.
func (s *Service) AddEventHandler(h EventHandler) {
	s.handlers = append(s.handlers, h)
}

// Registration is the input to Register.
type Registration struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a regular account.
// Returns ErrEmailExists when the email is taken and ErrInvalidInput for
// missing or malformed fields.
func (s *Service) Register(ctx context.Context, reg Registration) (*User, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Surname = strings.TrimSpace(reg.Surname)
	reg.Email = strings.TrimSpace(reg.Email)

	switch {
	case reg.Name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case reg.Surname == "":
		return nil, fmt.Errorf("%w: surname is required", ErrInvalidInput)
	case !govalidator.IsEmail(reg.Email):
		return nil, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	case len(reg.Password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	user, err := NewUser(UserTypeRegular, reg.Name, reg.Surname, reg.Email)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash, err = HashPassword(reg.Password); err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	s.emit(ctx, EventRegistered, user.ID, user.UserType)
	return user, nil
}

// Login checks credentials and issues an access token.
// Returns ErrUserNotFound for an unknown email and ErrInvalidCredentials for
// a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", nil, err
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		s.logger.Warn("login failed", "user_id", user.ID)
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	s.emit(ctx, EventLoggedIn, user.ID, user.UserType)
	return token, user, nil
}

// GetUser returns the account with the given ID.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateUser applies a profile change to the account.
func (s *Service) UpdateUser(ctx context.Context, id string, update ProfileUpdate) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update.apply(user)
	if strings.TrimSpace(user.Name) == "" || strings.TrimSpace(user.Surname) == "" {
		return nil, fmt.Errorf("%w: name and surname are required", ErrInvalidInput)
	}
	if update.Email != nil && !govalidator.IsEmail(user.Email) {
		return nil, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.emit(ctx, EventUpdated, user.ID, user.UserType)
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
// Returns ErrInvalidCredentials when oldPassword does not match.
func (s *Service) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", id)
	s.emit(ctx, EventPasswordChanged, id, user.UserType)
	return nil
}

// DeleteUser removes the account's device listings and then the account.
// When the listings cannot all be removed the account is kept, so the call
// can be retried. Listings are removed even when the account is already
// gone, in which case ErrUserNotFound is returned afterwards.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if s.devices != nil {
		n, err := s.devices.DeleteByOwner(ctx, id)
		if err != nil {
			s.logger.Error("removing listings of user", "user_id", id, "deleted", n, "error", err)
			return fmt.Errorf("removing listings: %w", err)
		}
		if n > 0 {
			s.logger.Info("listings of user removed", "user_id", id, "count", n)
		}
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", "user_id", id)
	s.emit(ctx, EventDeleted, id, "")
	return nil
}

func (s *Service) emit(ctx context.Context, t EventType, userID string, userType UserType) {
	if len(s.handlers) == 0 {
		return
	}
	ev := Event{Type: t, UserID: userID, UserType: userType, Timestamp: s.now()}
	ctx = context.WithoutCancel(ctx)
	for _, h := range s.handlers {
		if err := h.HandleUserEvent(ctx, ev); err != nil {
			s.logger.Warn("user event handler failed", "event", ev.Type, "user_id", userID, "error", err)
		}
	}
}


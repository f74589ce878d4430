package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/docshelf/internal/authz"
	"github.com/Skotchmaster/docshelf/internal/common"
	"github.com/Skotchmaster/docshelf/internal/events"
	"github.com/Skotchmaster/docshelf/internal/hash"
	"github.com/Skotchmaster/docshelf/internal/logging"
	"github.com/Skotchmaster/docshelf/internal/models"
)

const (
	msgAllFieldsRequired   = "All fields are required"
	msgInvalidRole         = "Invalid role"
	msgInvalidEmail        = "Invalid email address"
	msgEmailTaken          = "Email already registered"
	msgCredentialsRequired = "Email and password are required"
	msgInvalidCredentials  = "Invalid email or password"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type SessionIssuer interface {
	Create(ctx context.Context, userID uuid.UUID) (string, time.Time, error)
}

type AuthService struct {
	Users    UserRepo
	Sessions SessionIssuer
	Events   events.Publisher

	checkPassword func(hash, password string) bool
}

func (s *AuthService) check(h, password string) bool {
	if s.checkPassword != nil {
		return s.checkPassword(h, password)
	}
	return hash.CheckPassword(h, password)
}

type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is a signed-in user plus the session token to hand back as a
// cookie.
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || in.Password == "" || in.Role == "" {
		return nil, fmt.Errorf("%s: %w", msgAllFieldsRequired, common.ErrValidation)
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", msgInvalidRole, common.ErrValidation)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%s: %w", msgInvalidEmail, common.ErrValidation)
	}

	// The unique index is the real guard; this only gives a friendlier answer
	// in the common case.
	_, err = s.Users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%s: %w", msgEmailTaken, common.ErrConflict)
	case !errors.Is(err, common.ErrNotFound):
		l.Error("signup_error", "status", 500, "reason", "lookup email", "error", err)
		return nil, err
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", msgEmailTaken, common.ErrConflict)
		}
		l.Error("signup_error", "status", 500, "reason", "create user", "error", err)
		return nil, err
	}

	res, err := s.startSession(ctx, user)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "create session", "error", err)
		return nil, err
	}

	events.PublishBestEffort(ctx, s.Events, events.TopicUsers, user.ID.String(), events.UserSignedUp{
		Type:   events.TypeUserSignedUp,
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		At:     user.CreatedAt,
	})
	l.Info("user_signed_up", "user_id", user.ID, "role", user.Role)
	return res, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%s: %w", msgCredentialsRequired, common.ErrValidation)
	}

	user, err := s.Users.GetUserByEmail(ctx, email)
	if errors.Is(err, common.ErrNotFound) {
		s.check(hash.Dummy(), in.Password)
		return nil, fmt.Errorf("%s: %w", msgInvalidCredentials, common.ErrUnauthenticated)
	}
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "lookup email", "error", err)
		return nil, err
	}
	if !s.check(user.PasswordHash, in.Password) {
		return nil, fmt.Errorf("%s: %w", msgInvalidCredentials, common.ErrUnauthenticated)
	}

	res, err := s.startSession(ctx, user)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "create session", "error", err)
		return nil, err
	}
	return res, nil
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*LoginResult, error) {
	token, exp, err := s.Sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) ListUsers(ctx context.Context, caller *models.User) ([]models.User, error) {
	if _, err := authz.Authorize(caller, authz.ActionListUsers, uuid.Nil); err != nil {
		return nil, err
	}
	return s.Users.ListUsers(ctx)
}

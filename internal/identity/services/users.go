// Package services contains the identity service business logic:
// registration, credential checks and the user directory.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/identity/passwords"
	"github.com/dmitrijs2005/gatekeeper/internal/identity/repositories/users"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("gatekeeper/identity/services")

// UserService owns user records and credential verification.
type UserService struct {
	users  users.Repository
	hasher passwords.Hasher
	logger logging.Logger

	now   func() time.Time
	newID func() string

	// dummyHash is compared against when the email is unknown so that a
	// failed login costs one bcrypt comparison either way.
	dummyHash string
}

// NewUserService builds the service. It hashes a random throwaway password
// once, which fails only if the hasher is broken.
func NewUserService(repo users.Repository, hasher passwords.Hasher, logger logging.Logger) (*UserService, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("dummy password: %w", err)
	}
	dummy, err := hasher.Hash(hex.EncodeToString(buf))
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	return &UserService{
		users:     repo,
		hasher:    hasher,
		logger:    logger.With("module", "user_service"),
		now:       time.Now,
		newID:     uuid.NewString,
		dummyHash: dummy,
	}, nil
}

// Register creates a user after checking that neither the email nor the
// username is taken, in that order.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (_ *models.PublicUser, err error) {
	ctx, span := tracer.Start(ctx, "users.register",
		trace.WithAttributes(attribute.String("user.username", req.Username)))
	defer endSpan(span, &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.ensureFree(ctx, req.Email, req.Username); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           s.newID(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) || errors.Is(err, common.ErrDuplicateUsername) {
			s.logger.Info(ctx, "registration lost uniqueness race", "username", req.Username, "reason", err)
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	span.SetAttributes(attribute.String("user.id", created.ID))
	s.logger.Info(ctx, "user registered", "user_id", created.ID, "username", created.Username)
	return created.Public(), nil
}

func (s *UserService) ensureFree(ctx context.Context, email, username string) error {
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return common.ErrDuplicateEmail
	case !errors.Is(err, common.ErrNotFound):
		return fmt.Errorf("lookup email: %w", err)
	}

	_, err = s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return common.ErrDuplicateUsername
	case !errors.Is(err, common.ErrNotFound):
		return fmt.Errorf("lookup username: %w", err)
	}

	return nil
}

// ListAll returns every user in registration order. An empty directory
// yields an empty, non-nil slice.
func (s *UserService) ListAll(ctx context.Context) (_ []models.PublicUser, err error) {
	ctx, span := tracer.Start(ctx, "users.list")
	defer endSpan(span, &err)

	all, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	result := make([]models.PublicUser, 0, len(all))
	for _, u := range all {
		result = append(result, *u.Public())
	}

	span.SetAttributes(attribute.Int("users.count", len(result)))
	s.logger.Debug(ctx, "users listed", "count", len(result))
	return result, nil
}

// Login checks credentials. An unknown email and a wrong password produce
// the same common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (_ *models.PublicUser, err error) {
	ctx, span := tracer.Start(ctx, "users.login")
	defer endSpan(span, &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.Verify(req.Password, s.dummyHash)
			s.logger.Info(ctx, "login rejected")
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.logger.Info(ctx, "login rejected", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	s.logger.Info(ctx, "login accepted", "user_id", user.ID)
	return user.Public(), nil
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}

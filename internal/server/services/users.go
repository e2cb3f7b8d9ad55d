// Package services contains the server's business logic: accounts and
// subscriptions, the chat turn, itinerary generation and storage, and export.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/logging"
	"github.com/dmitrijs2005/chanakya/internal/server/auth"
	"github.com/dmitrijs2005/chanakya/internal/server/config"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/dmitrijs2005/chanakya/internal/server/repositories/repomanager"
)

// UserService handles signup, signin, token checks and subscription changes.
type UserService struct {
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	logger                      logging.Logger
	now                         func() time.Time
}

func NewUserService(m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *UserService {
	return &UserService{
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		logger:                      l.With("module", "users"),
		now:                         func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a free account and returns an access token for it.
// An empty email or password yields common.ErrValidation and a taken email
// common.ErrAlreadyExists.
func (s *UserService) Register(ctx context.Context, name, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", common.ErrValidation
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := models.NewUser(email, name, hash)
	user.CreatedAt = s.now()
	if _, err := s.repomanager.Users().Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return "", err
		}
		return "", fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "email", email)
	return s.generateAccessToken(email)
}

// Login checks credentials. Unknown emails and wrong passwords both yield
// common.ErrUnauthorized; a known email with an empty password yields
// common.ErrValidation.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	if password == "" {
		return "", common.ErrValidation
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", common.ErrUnauthorized
	}

	return s.generateAccessToken(user.Email)
}

// Authenticate resolves a bearer token to its current user record.
// Token failures pass through as common.ErrInvalidToken or
// common.ErrTokenExpired; a deleted account yields common.ErrNotFound.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	email, err := auth.GetEmailFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Users().GetByEmail(ctx, email)
}

func (s *UserService) Upgrade(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repomanager.Users().SetSubscription(ctx, email, true, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "subscription upgraded", "email", email)
	return user, nil
}

func (s *UserService) Downgrade(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repomanager.Users().SetSubscription(ctx, email, false, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "subscription downgraded", "email", email)
	return user, nil
}

func (s *UserService) generateAccessToken(email string) (string, error) {
	token, err := auth.GenerateToken(email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrInternal
	}
	return token, nil
}

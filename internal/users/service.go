package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"ticketly/internal/auth"
	"ticketly/internal/logger"
	"ticketly/internal/models"
	"ticketly/internal/users/db"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const minPasswordLength = 8

// Store is the persistence surface the service needs.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Service struct {
	store  Store
	issuer *auth.TokenIssuer
	log    *logger.Logger
}

func NewService(store Store, issuer *auth.TokenIssuer, log *logger.Logger) *Service {
	return &Service{store: store, issuer: issuer, log: log}
}

// Register creates a user account and returns it with a fresh access token.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	if name == "" {
		return nil, "", fmt.Errorf("%w: name is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}

	s.log.Info("USERS", fmt.Sprintf("Registered user %s", user.ID))
	return user, token, nil
}

// Login verifies credentials and returns the user with a fresh access token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

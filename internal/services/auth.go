package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Renal37/bankaccount/internal/models"
)

// Errors of registration and login
var (
	ErrUserIsAlreadyRegistered = errors.New("user is already registered")
	ErrUserIsNotExist          = errors.New("user does not exist")
	ErrPasswordIsIncorrect     = errors.New("password is incorrect")
	ErrEmptyCredentials        = errors.New("login and password must not be empty")
)

// AuthService registers users and checks their passwords. A login is the ledger identity of its user.
type AuthService struct {
	storage AuthStorage
}

// AuthStorage persists users for AuthService
type AuthStorage interface {
	// CreateUser returns models.ErrDuplicateUser when the login is taken.
	CreateUser(ctx context.Context, user models.User) error
	// FindUser returns nil without an error when there is no such login.
	FindUser(ctx context.Context, login string) (*models.User, error)
}

// NewAuthService creates an AuthService over storage
func NewAuthService(storage AuthStorage) *AuthService {
	return &AuthService{storage: storage}
}

// Register stores a new user with a bcrypt hash of its password.
// A taken login yields ErrUserIsAlreadyRegistered.
func (auth *AuthService) Register(ctx context.Context, user models.UnknownUser) error {
	if err := validateUser(user); err != nil {
		return err
	}

	// Only the hash of the password is stored
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = auth.storage.CreateUser(ctx, models.User{
		Login: *user.Login,
		Hash:  string(hashedPassword),
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			return ErrUserIsAlreadyRegistered
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Login checks the password of a registered user
func (auth *AuthService) Login(ctx context.Context, user models.UnknownUser) error {
	if err := validateUser(user); err != nil {
		return err
	}

	u, err := auth.storage.FindUser(ctx, *user.Login)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if u == nil {
		return ErrUserIsNotExist
	}

	// Comparing the password with the stored hash
	if err := bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(*user.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordIsIncorrect
		}
		return fmt.Errorf("failed to compare passwords: %w", err)
	}

	return nil
}

// GetUser returns the user registered under login, or ErrUserIsNotExist
func (auth *AuthService) GetUser(ctx context.Context, login string) (*models.User, error) {
	user, err := auth.storage.FindUser(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserIsNotExist
	}

	return user, nil
}

// validateUser rejects missing and empty credentials
func validateUser(user models.UnknownUser) error {
	if user.Login == nil || *user.Login == "" || user.Password == nil || *user.Password == "" {
		return ErrEmptyCredentials
	}
	return nil
}

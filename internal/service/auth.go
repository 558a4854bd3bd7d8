package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/parley/parley/internal/auth"
	"github.com/parley/parley/internal/cache"
	"github.com/parley/parley/internal/model"
	"github.com/parley/parley/internal/repository"
	"github.com/parley/parley/internal/token"
)

// Service errors.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidFullName    = errors.New("full name is required")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// Pragmatic email shape check; deliverability is not our problem.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	minPasswordLength = 8
	maxFullNameLength = 100
)

// AuthService handles account business logic: signup, login, profile
// management and account deletion.
type AuthService struct {
	repo   *repository.Repository
	cache  *cache.Cache
	tokens *token.Manager
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *repository.Repository, cache *cache.Cache, tokens *token.Manager) *AuthService {
	return &AuthService{
		repo:   repo,
		cache:  cache,
		tokens: tokens,
	}
}

// SignUpInput defines input for registering an account.
type SignUpInput struct {
	FullName        string
	Email           string
	Password        string
	PasswordConfirm string
}

// SignUp registers a new account and returns the user with a signed token.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*model.User, string, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" || len(fullName) > maxFullNameLength {
		return nil, "", ErrInvalidFullName
	}

	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, "", err
	}

	if err := validatePassword(input.Password, input.PasswordConfirm); err != nil {
		return nil, "", err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           newID(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, "", ErrEmailExists
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	signed, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, signed, nil
}

// Login authenticates credentials and returns the user with a signed token.
// All failures collapse to ErrInvalidCredentials so callers cannot probe
// which emails are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		// Best effort; a stale last_login_at is not worth failing a login.
		_ = err
	}
	user.LastLoginAt = &now

	signed, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, signed, nil
}

// Profile returns the account behind a verified identity.
func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfileInput defines input for updating account details.
type UpdateProfileInput struct {
	UserID   string
	FullName string
	Email    string
}

// UpdateProfile updates the account's full name and email.
func (s *AuthService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*model.User, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" || len(fullName) > maxFullNameLength {
		return nil, ErrInvalidFullName
	}

	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateUserProfile(ctx, input.UserID, fullName, email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return user, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, newPassword, confirm string) error {
	if err := validatePassword(newPassword, confirm); err != nil {
		return err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	ok, err := auth.VerifyPassword(current, user.PasswordHash)
	if err != nil || !ok {
		return ErrWrongPassword
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.repo.UpdateUserPassword(ctx, userID, hash)
}

// DeleteAccount removes the account and everything it owns: chats,
// messages and cached history. The caller's password is re-verified
// before anything is deleted.
func (s *AuthService) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return ErrWrongPassword
	}

	chatIDs, err := s.ownedChatIDs(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteAllChats(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete chats: %w", err)
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if len(chatIDs) > 0 {
		// Cache cleanup is best effort; entries expire on their own.
		_ = s.cache.InvalidateHistory(ctx, chatIDs...)
	}

	return nil
}

// ownedChatIDs collects the IDs of every chat the user owns, archived
// included, so cached history can be invalidated after deletion.
func (s *AuthService) ownedChatIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	for _, archived := range []bool{false, true} {
		chats, err := s.repo.ListChats(ctx, userID, archived)
		if err != nil {
			return nil, fmt.Errorf("failed to list chats: %w", err)
		}
		for _, chat := range chats {
			ids = append(ids, chat.ID)
		}
	}
	return ids, nil
}

// normalizeEmail lowercases and trims an email address, validating its shape.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// validatePassword enforces the password policy and confirmation match.
func validatePassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

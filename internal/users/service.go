package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/auth"
	"github.com/entwine-labs/entwine/backend/internal/ident"
	"gorm.io/gorm"
)

var (
	// ErrInvalidRegistration indicates the supplied registration fields are unusable.
	ErrInvalidRegistration = errors.New("users: invalid registration")
	// ErrEmailTaken indicates the email address is already registered.
	ErrEmailTaken = errors.New("users: email already registered")
	// ErrInvalidCredentials indicates the email/password pair did not match an account.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrAccountNotFound indicates no account exists for the given identifier.
	ErrAccountNotFound = errors.New("users: account not found")
)

// ServiceConfig describes the dependencies required for account management.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider ident.Provider
}

// Service manages user accounts and credential verification.
type Service struct {
	db         *gorm.DB
	now        func() time.Time
	idProvider ident.Provider
	cache      sync.Map
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("users: id provider required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:         cfg.Database,
		now:        clock,
		idProvider: cfg.IDProvider,
	}, nil
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, displayName, password string) (Account, error) {
	normalizedEmail := NormalizeEmail(email)
	trimmedName := strings.TrimSpace(displayName)
	if normalizedEmail == "" || trimmedName == "" {
		return Account{}, ErrInvalidRegistration
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Account{}, err
	}

	userID, err := s.idProvider.NewID()
	if err != nil {
		return Account{}, err
	}

	account := Account{
		UserID:       userID,
		Email:        normalizedEmail,
		DisplayName:  trimmedName,
		PasswordHash: hash,
		LastSeenAt:   s.now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Account{}).Where("email = ?", normalizedEmail).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrEmailTaken
		}
		return tx.Create(&account).Error
	})
	if err != nil {
		// A concurrent registration can slip past the pre-check and land
		// on the unique index instead.
		if isDuplicateEmail(err) {
			return Account{}, ErrEmailTaken
		}
		return Account{}, err
	}
	s.cache.Store(account.UserID, account)
	return account, nil
}

func isDuplicateEmail(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: user_accounts.email")
}

// Authenticate verifies credentials and returns the matching account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	normalizedEmail := NormalizeEmail(email)
	if normalizedEmail == "" {
		return Account{}, ErrInvalidCredentials
	}

	var account Account
	err := s.db.WithContext(ctx).Where("email = ?", normalizedEmail).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, err
	}

	if err := auth.VerifyPassword(account.PasswordHash, password); err != nil {
		return Account{}, ErrInvalidCredentials
	}

	_ = s.db.WithContext(ctx).Model(&Account{}).
		Where("user_id = ?", account.UserID).
		Update("last_seen_at", s.now()).Error

	s.cache.Store(account.UserID, account)
	return account, nil
}

// GetByID returns the account for the given user identifier.
func (s *Service) GetByID(ctx context.Context, userID string) (Account, error) {
	if userID == "" {
		return Account{}, ErrAccountNotFound
	}
	if cached, ok := s.cache.Load(userID); ok {
		if account, ok := cached.(Account); ok {
			return account, nil
		}
	}
	var account Account
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, err
	}
	s.cache.Store(account.UserID, account)
	return account, nil
}

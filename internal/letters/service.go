package letters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/ident"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrLetterNotFound indicates no letter exists for the given identifier.
	ErrLetterNotFound = errors.New("letters: letter not found")
	// ErrInvalidLetter indicates unusable letter fields.
	ErrInvalidLetter = errors.New("letters: invalid letter")
	// ErrNotAuthor indicates a delete attempt by someone other than the author.
	ErrNotAuthor = errors.New("letters: only the author may delete")
)

// ServiceConfig describes the dependencies of the letters service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider ident.Provider
	Logger     *zap.Logger
	Notify     func(coupleID, event string)
}

// Service manages love letters scoped to a couple.
type Service struct {
	db         *gorm.DB
	now        func() time.Time
	idProvider ident.Provider
	logger     *zap.Logger
	notify     func(coupleID, event string)
}

// NewService constructs the letters service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("letters: database connection required")
	}
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("letters: id provider required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notify := cfg.Notify
	if notify == nil {
		notify = func(string, string) {}
	}
	return &Service{
		db:         cfg.Database,
		now:        clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
		notify:     notify,
	}, nil
}

// Create stores a new letter for the couple.
func (s *Service) Create(ctx context.Context, coupleID, authorID, title, body string, unsealAt int64) (Letter, error) {
	trimmedTitle := strings.TrimSpace(title)
	trimmedBody := strings.TrimSpace(body)
	if trimmedTitle == "" || trimmedBody == "" {
		return Letter{}, ErrInvalidLetter
	}
	letterID, err := s.idProvider.NewID()
	if err != nil {
		return Letter{}, err
	}
	letter := Letter{
		LetterID:        letterID,
		CoupleID:        coupleID,
		AuthorID:        authorID,
		Title:           trimmedTitle,
		Body:            trimmedBody,
		UnsealAtSeconds: unsealAt,
	}
	if err := s.db.WithContext(ctx).Create(&letter).Error; err != nil {
		return Letter{}, err
	}
	s.notify(coupleID, "letter-created")
	return letter, nil
}

// List returns the couple's letters, newest first. Bodies of letters still
// sealed for the requester are blanked out.
func (s *Service) List(ctx context.Context, coupleID, requesterID string) ([]Letter, error) {
	var results []Letter
	if err := s.db.WithContext(ctx).
		Where("couple_id = ?", coupleID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	now := s.now()
	for i := range results {
		if results[i].Sealed(now) && !strings.EqualFold(results[i].AuthorID, requesterID) {
			results[i].Body = ""
		}
	}
	return results, nil
}

// Get returns one letter, hiding the body if still sealed for the requester.
func (s *Service) Get(ctx context.Context, coupleID, letterID, requesterID string) (Letter, error) {
	var letter Letter
	err := s.db.WithContext(ctx).
		Where("couple_id = ? AND letter_id = ?", coupleID, letterID).
		Take(&letter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Letter{}, ErrLetterNotFound
	}
	if err != nil {
		return Letter{}, err
	}
	if letter.Sealed(s.now()) && !strings.EqualFold(letter.AuthorID, requesterID) {
		letter.Body = ""
	}
	return letter, nil
}

// Delete removes a letter; only its author may do so.
func (s *Service) Delete(ctx context.Context, coupleID, letterID, requesterID string) error {
	var letter Letter
	err := s.db.WithContext(ctx).
		Where("couple_id = ? AND letter_id = ?", coupleID, letterID).
		Take(&letter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrLetterNotFound
	}
	if err != nil {
		return err
	}
	if !strings.EqualFold(letter.AuthorID, requesterID) {
		return ErrNotAuthor
	}
	if err := s.db.WithContext(ctx).Delete(&Letter{}, "letter_id = ?", letterID).Error; err != nil {
		return err
	}
	s.notify(coupleID, "letter-deleted")
	return nil
}

// Count returns the number of letters stored for the couple.
func (s *Service) Count(ctx context.Context, coupleID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Letter{}).
		Where("couple_id = ?", coupleID).
		Count(&count).Error
	return count, err
}

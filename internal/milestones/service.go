package milestones

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
	// ErrMilestoneNotFound indicates no milestone exists for the given identifier.
	ErrMilestoneNotFound = errors.New("milestones: milestone not found")
	// ErrInvalidMilestone indicates unusable milestone fields.
	ErrInvalidMilestone = errors.New("milestones: invalid milestone")
)

// ServiceConfig describes the dependencies of the milestones service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider ident.Provider
	Logger     *zap.Logger
	Notify     func(coupleID, event string)
}

// Service manages couple milestones.
type Service struct {
	db         *gorm.DB
	now        func() time.Time
	idProvider ident.Provider
	logger     *zap.Logger
	notify     func(coupleID, event string)
}

// NewService constructs the milestones service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("milestones: database connection required")
	}
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("milestones: id provider required")
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

// Create stores a new milestone for the couple.
func (s *Service) Create(ctx context.Context, coupleID, creatorID, title, description, category string, achievedAt int64) (Milestone, error) {
	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		return Milestone{}, ErrInvalidMilestone
	}
	normalizedCategory := strings.ToLower(strings.TrimSpace(category))
	switch normalizedCategory {
	case CategoryFirsts, CategoryAnniversary, CategoryIntimacy, CategoryAdventure:
	default:
		normalizedCategory = CategoryOther
	}
	if achievedAt <= 0 {
		achievedAt = s.now().UTC().Unix()
	}

	milestoneID, err := s.idProvider.NewID()
	if err != nil {
		return Milestone{}, err
	}
	milestone := Milestone{
		MilestoneID:       milestoneID,
		CoupleID:          coupleID,
		CreatedBy:         creatorID,
		Title:             trimmedTitle,
		Description:       strings.TrimSpace(description),
		Category:          normalizedCategory,
		AchievedAtSeconds: achievedAt,
	}
	if err := s.db.WithContext(ctx).Create(&milestone).Error; err != nil {
		return Milestone{}, err
	}
	s.notify(coupleID, "milestone-created")
	return milestone, nil
}

// List returns the couple's milestones, most recently achieved first.
func (s *Service) List(ctx context.Context, coupleID string) ([]Milestone, error) {
	var results []Milestone
	err := s.db.WithContext(ctx).
		Where("couple_id = ?", coupleID).
		Order("achieved_at_s DESC").
		Find(&results).Error
	return results, err
}

// Delete removes one milestone.
func (s *Service) Delete(ctx context.Context, coupleID, milestoneID string) error {
	result := s.db.WithContext(ctx).
		Where("couple_id = ? AND milestone_id = ?", coupleID, milestoneID).
		Delete(&Milestone{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMilestoneNotFound
	}
	s.notify(coupleID, "milestone-deleted")
	return nil
}

// Count returns the number of milestones stored for the couple.
func (s *Service) Count(ctx context.Context, coupleID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Milestone{}).
		Where("couple_id = ?", coupleID).
		Count(&count).Error
	return count, err
}

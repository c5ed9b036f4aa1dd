package cycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/couples"
	"github.com/entwine-labs/entwine/backend/internal/ident"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrProfileNotFound indicates no cycle profile exists for the user.
	ErrProfileNotFound = errors.New("cycle: profile not found")
	// ErrNotShared indicates the partner requested a profile that is not shared.
	ErrNotShared = errors.New("cycle: profile not shared with partner")
	// ErrInvalidProfile indicates unusable profile fields.
	ErrInvalidProfile = errors.New("cycle: invalid profile")
	// ErrInvalidFlow indicates an unknown flow level.
	ErrInvalidFlow = errors.New("cycle: invalid flow level")
)

// ProfileInput carries the caller-editable profile fields.
type ProfileInput struct {
	CoupleID          string
	LastPeriodStart   time.Time
	AvgCycleLength    int
	AvgPeriodLength   int
	SharedWithPartner bool
}

// LogInput carries the caller-editable daily log fields.
type LogInput struct {
	Date       time.Time
	IsPeriod   bool
	Flow       string
	SymptomIDs []uint
	Notes      string
}

// Summary is the derived view served to the dashboard.
type Summary struct {
	CycleDay            int       `json:"cycle_day"`
	Phase               Phase     `json:"phase"`
	NextPeriodStart     time.Time `json:"next_period_start"`
	DaysUntilNextPeriod int       `json:"days_until_next_period"`
	AvgCycleLength      int       `json:"avg_cycle_length"`
	AvgPeriodLength     int       `json:"avg_period_length"`
}

// PartnerSource resolves the couple a user belongs to. Sharing a profile
// only ever extends to that one partner.
type PartnerSource interface {
	ForUser(ctx context.Context, userID string) (couples.Couple, error)
}

// ServiceConfig describes the dependencies of the cycle service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider ident.Provider
	Partners   PartnerSource
	Logger     *zap.Logger
}

// Service manages cycle profiles and daily logs for the Lunara mode.
type Service struct {
	db         *gorm.DB
	now        func() time.Time
	idProvider ident.Provider
	partners   PartnerSource
	logger     *zap.Logger
}

// NewService constructs the cycle service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("cycle: database connection required")
	}
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("cycle: id provider required")
	}
	if cfg.Partners == nil {
		return nil, fmt.Errorf("cycle: partner source required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:         cfg.Database,
		now:        clock,
		idProvider: cfg.IDProvider,
		partners:   cfg.Partners,
		logger:     logger,
	}, nil
}

// UpsertProfile creates or replaces the caller's cycle profile. Missing
// averages fall back to the fixed defaults.
func (s *Service) UpsertProfile(ctx context.Context, ownerID string, input ProfileInput) (Profile, error) {
	if strings.TrimSpace(ownerID) == "" || input.LastPeriodStart.IsZero() {
		return Profile{}, ErrInvalidProfile
	}
	cycleLength := input.AvgCycleLength
	if cycleLength <= 0 {
		cycleLength = DefaultCycleLength
	}
	periodLength := input.AvgPeriodLength
	if periodLength <= 0 {
		periodLength = DefaultPeriodLength
	}

	profile := Profile{
		UserID:            ownerID,
		CoupleID:          input.CoupleID,
		LastPeriodStart:   truncateToDate(input.LastPeriodStart),
		AvgCycleLength:    cycleLength,
		AvgPeriodLength:   periodLength,
		SharedWithPartner: input.SharedWithPartner,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"couple_id", "last_period_start", "avg_cycle_length", "avg_period_length", "shared_with_partner",
		}),
	}).Create(&profile).Error; err != nil {
		return Profile{}, err
	}
	s.logger.Info("cycle profile saved", zap.String("user_id", ownerID))
	return profile, nil
}

// ProfileFor returns a profile for the requester: owners always see their
// own, the owner's couple partner only when sharing is enabled. Everyone
// else is refused regardless of the sharing flag.
func (s *Service) ProfileFor(ctx context.Context, requesterID, ownerID string) (Profile, error) {
	var profile Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	if !strings.EqualFold(requesterID, ownerID) {
		if err := s.requirePartner(ctx, requesterID, ownerID); err != nil {
			return Profile{}, err
		}
		if !profile.SharedWithPartner {
			return Profile{}, ErrNotShared
		}
	}
	return profile, nil
}

func (s *Service) requirePartner(ctx context.Context, requesterID, ownerID string) error {
	couple, err := s.partners.ForUser(ctx, ownerID)
	if errors.Is(err, couples.ErrCoupleNotFound) {
		return ErrNotShared
	}
	if err != nil {
		return err
	}
	membership := couples.Membership{User1ID: couple.User1ID, User2ID: couple.User2ID}
	if !membership.Contains(requesterID) {
		return ErrNotShared
	}
	return nil
}

// SummaryFor derives the cycle day, phase, and next period projection for
// the given evaluation time.
func (s *Service) SummaryFor(ctx context.Context, requesterID, ownerID string, today time.Time) (Summary, error) {
	profile, err := s.ProfileFor(ctx, requesterID, ownerID)
	if err != nil {
		return Summary{}, err
	}
	if today.IsZero() {
		today = s.now()
	}
	day := CycleDay(today, profile.LastPeriodStart, profile.AvgCycleLength)
	next := NextPeriodStart(today, profile.LastPeriodStart, profile.AvgCycleLength)
	return Summary{
		CycleDay:            day,
		Phase:               PhaseForDay(day),
		NextPeriodStart:     next,
		DaysUntilNextPeriod: daysBetween(today, next),
		AvgCycleLength:      profile.AvgCycleLength,
		AvgPeriodLength:     profile.AvgPeriodLength,
	}, nil
}

// UpsertDailyLog records or replaces the caller's log for one day.
func (s *Service) UpsertDailyLog(ctx context.Context, ownerID string, input LogInput) (DailyLog, error) {
	if strings.TrimSpace(ownerID) == "" || input.Date.IsZero() {
		return DailyLog{}, ErrInvalidProfile
	}
	flow := strings.ToLower(strings.TrimSpace(input.Flow))
	if flow == "" {
		flow = FlowNone
	}
	switch flow {
	case FlowNone, FlowLight, FlowMedium, FlowHeavy:
	default:
		return DailyLog{}, ErrInvalidFlow
	}

	logID, err := s.idProvider.NewID()
	if err != nil {
		return DailyLog{}, err
	}
	record := DailyLog{
		LogID:      logID,
		UserID:     ownerID,
		Date:       truncateToDate(input.Date),
		IsPeriod:   input.IsPeriod,
		Flow:       flow,
		SymptomIDs: input.SymptomIDs,
		Notes:      strings.TrimSpace(input.Notes),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_period", "flow", "symptom_ids", "notes",
		}),
	}).Create(&record).Error; err != nil {
		return DailyLog{}, err
	}
	return record, nil
}

// ListDailyLogs returns the owner's logs in the inclusive date range,
// newest first. Partner access follows the profile's sharing flag.
func (s *Service) ListDailyLogs(ctx context.Context, requesterID, ownerID string, from, to time.Time) ([]DailyLog, error) {
	if !strings.EqualFold(requesterID, ownerID) {
		if _, err := s.ProfileFor(ctx, requesterID, ownerID); err != nil {
			return nil, err
		}
	}
	query := s.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if !from.IsZero() {
		query = query.Where("log_date >= ?", truncateToDate(from))
	}
	if !to.IsZero() {
		query = query.Where("log_date <= ?", truncateToDate(to))
	}
	var logs []DailyLog
	if err := query.Order("log_date DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

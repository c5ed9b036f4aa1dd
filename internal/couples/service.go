package couples

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/ident"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	inviteCodeLength = 6
	inviteCodeChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var (
	// ErrCoupleNotFound indicates no couple exists for the given identifier or code.
	ErrCoupleNotFound = errors.New("couples: couple not found")
	// ErrAlreadyPaired indicates the user already belongs to a couple.
	ErrAlreadyPaired = errors.New("couples: user already paired")
	// ErrCoupleFull indicates both member slots are already occupied.
	ErrCoupleFull = errors.New("couples: couple already has two members")
	// ErrSelfJoin indicates a user attempted to join their own couple.
	ErrSelfJoin = errors.New("couples: cannot join your own couple")
	// ErrNotMember indicates the user does not belong to the couple.
	ErrNotMember = errors.New("couples: user is not a member")
)

// ServiceConfig describes the dependencies required for couple management.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider ident.Provider
	Logger     *zap.Logger
}

// Service manages couple pairing and membership lookups.
type Service struct {
	db         *gorm.DB
	now        func() time.Time
	idProvider ident.Provider
	logger     *zap.Logger
}

// NewService constructs the couples service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("couples: database connection required")
	}
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("couples: id provider required")
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
		logger:     logger,
	}, nil
}

// Create starts a new couple with the caller as user1 and returns it with a fresh invite code.
func (s *Service) Create(ctx context.Context, creatorID string) (Couple, error) {
	if strings.TrimSpace(creatorID) == "" {
		return Couple{}, ErrNotMember
	}
	if _, err := s.ForUser(ctx, creatorID); err == nil {
		return Couple{}, ErrAlreadyPaired
	} else if !errors.Is(err, ErrCoupleNotFound) {
		return Couple{}, err
	}

	coupleID, err := s.idProvider.NewID()
	if err != nil {
		return Couple{}, err
	}
	code, err := s.uniqueInviteCode(ctx)
	if err != nil {
		return Couple{}, err
	}

	couple := Couple{
		CoupleID:   coupleID,
		User1ID:    creatorID,
		InviteCode: code,
	}
	if err := s.db.WithContext(ctx).Create(&couple).Error; err != nil {
		return Couple{}, err
	}
	s.logger.Info("couple created",
		zap.String("couple_id", couple.CoupleID),
		zap.String("user1_id", couple.User1ID))
	return couple, nil
}

// Join adds the caller as user2 of the couple matching the invite code.
func (s *Service) Join(ctx context.Context, inviteCode, userID string) (Couple, error) {
	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" || strings.TrimSpace(userID) == "" {
		return Couple{}, ErrCoupleNotFound
	}
	if _, err := s.ForUser(ctx, userID); err == nil {
		return Couple{}, ErrAlreadyPaired
	} else if !errors.Is(err, ErrCoupleNotFound) {
		return Couple{}, err
	}

	var couple Couple
	err := s.db.WithContext(ctx).Where("invite_code = ?", code).Take(&couple).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Couple{}, ErrCoupleNotFound
	}
	if err != nil {
		return Couple{}, err
	}
	if strings.EqualFold(couple.User1ID, userID) {
		return Couple{}, ErrSelfJoin
	}
	if couple.User2ID != "" {
		return Couple{}, ErrCoupleFull
	}

	couple.User2ID = userID
	if err := s.db.WithContext(ctx).Model(&Couple{}).
		Where("couple_id = ? AND (user2_id = '' OR user2_id IS NULL)", couple.CoupleID).
		Update("user2_id", userID).Error; err != nil {
		return Couple{}, err
	}
	s.logger.Info("couple joined",
		zap.String("couple_id", couple.CoupleID),
		zap.String("user2_id", userID))
	return couple, nil
}

// Get returns the couple for the given identifier.
func (s *Service) Get(ctx context.Context, coupleID string) (Couple, error) {
	var couple Couple
	err := s.db.WithContext(ctx).Where("couple_id = ?", coupleID).Take(&couple).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Couple{}, ErrCoupleNotFound
	}
	if err != nil {
		return Couple{}, err
	}
	return couple, nil
}

// ForUser returns the couple the given user belongs to.
func (s *Service) ForUser(ctx context.Context, userID string) (Couple, error) {
	var couple Couple
	err := s.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Take(&couple).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Couple{}, ErrCoupleNotFound
	}
	if err != nil {
		return Couple{}, err
	}
	return couple, nil
}

// MembershipOf returns the canonical member ordering for the couple.
func (s *Service) MembershipOf(ctx context.Context, coupleID string) (Membership, error) {
	couple, err := s.Get(ctx, coupleID)
	if err != nil {
		return Membership{}, err
	}
	return Membership{User1ID: couple.User1ID, User2ID: couple.User2ID}, nil
}

// RequireMember returns the couple when the user is one of its members.
func (s *Service) RequireMember(ctx context.Context, coupleID, userID string) (Couple, error) {
	couple, err := s.Get(ctx, coupleID)
	if err != nil {
		return Couple{}, err
	}
	membership := Membership{User1ID: couple.User1ID, User2ID: couple.User2ID}
	if !membership.Contains(userID) {
		return Couple{}, ErrNotMember
	}
	return couple, nil
}

func (s *Service) uniqueInviteCode(ctx context.Context) (string, error) {
	for {
		code, err := randomInviteCode()
		if err != nil {
			return "", err
		}
		var count int64
		if err := s.db.WithContext(ctx).Model(&Couple{}).
			Where("invite_code = ?", code).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
}

func randomInviteCode() (string, error) {
	code := make([]byte, inviteCodeLength)
	for i := range code {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(inviteCodeChars))))
		if err != nil {
			return "", err
		}
		code[i] = inviteCodeChars[n.Int64()]
	}
	return string(code), nil
}

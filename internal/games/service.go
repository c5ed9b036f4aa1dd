package games

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/couples"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase    = errors.New("database handle is required")
	errMissingMemberships = errors.New("membership source is required")
	noOpLogger            = zap.NewNop()
)

// ServiceError carries an operation/reason code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew  = "games.service.new"
	opReadSession = "games.read_session"
	opMutate      = "games.mutate_session"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// MembershipSource resolves the canonical member ordering of a couple.
type MembershipSource interface {
	MembershipOf(ctx context.Context, coupleID string) (couples.Membership, error)
}

// EventPublisher receives post-commit session change notifications for
// delivery to both members, the writer included.
type EventPublisher interface {
	PublishSessionChange(coupleID string, gameType GameType, version int64)
}

// ServiceConfig describes the dependencies of the game session service.
type ServiceConfig struct {
	Database    *gorm.DB
	Clock       func() time.Time
	Memberships MembershipSource
	Publisher   EventPublisher
	Rand        *rand.Rand
	Logger      *zap.Logger
}

// Service owns the session rows and serializes every mutation through a
// row-locked read-modify-write transaction. The original design re-fetched
// the freshest state client-side before each blind upsert; owning the store
// turns that heuristic into an actual serialization point, and the version
// column gives callers a compare-and-swap token.
type Service struct {
	db          *gorm.DB
	clock       func() time.Time
	memberships MembershipSource
	publisher   EventPublisher
	rng         *rand.Rand
	logger      *zap.Logger
}

// NewService constructs the game session service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.Memberships == nil {
		return nil, newServiceError(opServiceNew, "missing_memberships", errMissingMemberships)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		db:          cfg.Database,
		clock:       clock,
		memberships: cfg.Memberships,
		publisher:   cfg.Publisher,
		rng:         cfg.Rand,
		logger:      logger,
	}, nil
}

// ReadSession returns the live session row for the couple and game type.
func (s *Service) ReadSession(ctx context.Context, coupleID string, gameType GameType) (GameSession, error) {
	var session GameSession
	err := s.db.WithContext(ctx).
		Where("couple_id = ? AND game_type = ?", coupleID, string(gameType)).
		Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return GameSession{}, ErrSessionNotFound
	}
	if err != nil {
		s.logError(opReadSession, "query_failed", err, zap.String("couple_id", coupleID))
		return GameSession{}, newServiceError(opReadSession, "query_failed", err)
	}
	return session, nil
}

// StartTruthOrDare creates or overwrites the couple's Truth-or-Dare session
// with the caller as turn holder and initiator.
func (s *Service) StartTruthOrDare(ctx context.Context, coupleID, userID string) (GameSession, error) {
	if _, err := s.requireMember(ctx, coupleID, userID); err != nil {
		return GameSession{}, err
	}
	return s.mutateSession(ctx, coupleID, GameTypeTruthOrDare, 0, func(existing *GameSession) (string, error) {
		return encodeState(NewTruthOrDareState(userID))
	})
}

// ChangeCategory switches the Truth-or-Dare category on the freshest state.
func (s *Service) ChangeCategory(ctx context.Context, coupleID, userID string, category Category, expectedVersion int64) (GameSession, error) {
	return s.mutateSession(ctx, coupleID, GameTypeTruthOrDare, expectedVersion, func(existing *GameSession) (string, error) {
		if existing == nil {
			return "", ErrSessionNotFound
		}
		state, err := decodeTruthOrDare(existing.StateJSON)
		if err != nil {
			return "", err
		}
		next, err := state.WithCategory(category, userID)
		if err != nil {
			return "", err
		}
		return encodeState(next)
	})
}

// ChooseMode records a truth/dare pick with a random prompt for the
// current category.
func (s *Service) ChooseMode(ctx context.Context, coupleID, userID string, mode Mode, expectedVersion int64) (GameSession, error) {
	return s.mutateSession(ctx, coupleID, GameTypeTruthOrDare, expectedVersion, func(existing *GameSession) (string, error) {
		if existing == nil {
			return "", ErrSessionNotFound
		}
		state, err := decodeTruthOrDare(existing.StateJSON)
		if err != nil {
			return "", err
		}
		next, err := state.WithChoice(mode, userID, s.pick)
		if err != nil {
			return "", err
		}
		return encodeState(next)
	})
}

// NextRound hands the Truth-or-Dare turn to the other member.
func (s *Service) NextRound(ctx context.Context, coupleID, userID string, expectedVersion int64) (GameSession, error) {
	membership, err := s.requireMember(ctx, coupleID, userID)
	if err != nil {
		return GameSession{}, err
	}
	return s.mutateSession(ctx, coupleID, GameTypeTruthOrDare, expectedVersion, func(existing *GameSession) (string, error) {
		if existing == nil {
			return "", ErrSessionNotFound
		}
		state, err := decodeTruthOrDare(existing.StateJSON)
		if err != nil {
			return "", err
		}
		next, err := state.WithNextRound(userID, membership)
		if err != nil {
			return "", err
		}
		return encodeState(next)
	})
}

// RepairTruthOrDare resets an invalid turn holder. Only the elected
// repairer's request is honored; everyone else gets ErrNotElected so the
// two clients cannot issue duplicate corrective writes.
func (s *Service) RepairTruthOrDare(ctx context.Context, coupleID, userID, partnerID string) (GameSession, error) {
	membership, err := s.requireMember(ctx, coupleID, userID)
	if err != nil {
		return GameSession{}, err
	}
	return s.mutateSession(ctx, coupleID, GameTypeTruthOrDare, 0, func(existing *GameSession) (string, error) {
		if existing == nil {
			return "", ErrSessionNotFound
		}
		state, err := decodeTruthOrDare(existing.StateJSON)
		if err != nil {
			return "", err
		}
		if !HolderInvalid(state, userID, partnerID, membership) {
			return "", ErrHolderValid
		}
		if !ElectRepairer(state, userID, partnerID, membership) {
			return "", ErrNotElected
		}
		s.logger.Warn("repairing invalid turn holder",
			zap.String("couple_id", coupleID),
			zap.String("stale_holder", state.TurnUserID),
			zap.String("repairer", userID))
		return encodeState(RepairState(state, userID))
	})
}

// StartLoveQuiz creates or overwrites the couple's quiz session with a
// fresh question sample. Restarting is the same operation; prior scores
// are not archived.
func (s *Service) StartLoveQuiz(ctx context.Context, coupleID, userID string) (GameSession, error) {
	if _, err := s.requireMember(ctx, coupleID, userID); err != nil {
		return GameSession{}, err
	}
	return s.mutateSession(ctx, coupleID, GameTypeLoveQuiz, 0, func(existing *GameSession) (string, error) {
		return encodeState(NewLoveQuizState(userID, s.shuffle))
	})
}

// SubmitQuizAnswer applies the caller's answer or guess to the freshest state.
func (s *Service) SubmitQuizAnswer(ctx context.Context, coupleID, userID, text string, expectedVersion int64) (GameSession, error) {
	membership, err := s.requireMember(ctx, coupleID, userID)
	if err != nil {
		return GameSession{}, err
	}
	return s.mutateSession(ctx, coupleID, GameTypeLoveQuiz, expectedVersion, func(existing *GameSession) (string, error) {
		if existing == nil {
			return "", ErrSessionNotFound
		}
		state, err := decodeLoveQuiz(existing.StateJSON)
		if err != nil {
			return "", err
		}
		next, err := state.WithAnswer(text, userID, membership)
		if err != nil {
			return "", err
		}
		return encodeState(next)
	})
}

// RevealQuizAnswer records the initiator's correctness judgement.
func (s *Service) RevealQuizAnswer(ctx context.Context, coupleID, userID string, isCorrect bool, expectedVersion int64) (GameSession, error) {
	if _, err := s.requireMember(ctx, coupleID, userID); err != nil {
		return GameSession{}, err
	}
	return s.mutateSession(ctx, coupleID, GameTypeLoveQuiz, expectedVersion, func(existing *GameSession) (string, error) {
		if existing == nil {
			return "", ErrSessionNotFound
		}
		state, err := decodeLoveQuiz(existing.StateJSON)
		if err != nil {
			return "", err
		}
		next, err := state.WithReveal(isCorrect, userID)
		if err != nil {
			return "", err
		}
		return encodeState(next)
	})
}

// mutateSession serializes a read-modify-write against the session row. The
// transform sees the freshest locked row (nil when absent) and returns the
// replacement blob; a positive expectedVersion turns the write into a
// compare-and-swap.
func (s *Service) mutateSession(ctx context.Context, coupleID string, gameType GameType, expectedVersion int64, transform func(existing *GameSession) (string, error)) (GameSession, error) {
	var saved GameSession
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing GameSession
		var existingPtr *GameSession
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("couple_id = ? AND game_type = ?", coupleID, string(gameType)).
			Take(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			existingPtr = nil
		} else if err != nil {
			s.logError(opMutate, "session_select_failed", err,
				zap.String("couple_id", coupleID),
				zap.String("game_type", string(gameType)))
			return newServiceError(opMutate, "session_select_failed", err)
		} else {
			existingPtr = &existing
		}

		if expectedVersion > 0 && (existingPtr == nil || existingPtr.Version != expectedVersion) {
			return ErrVersionConflict
		}

		stateJSON, err := transform(existingPtr)
		if err != nil {
			return err
		}

		saved = GameSession{
			CoupleID:         coupleID,
			GameType:         string(gameType),
			StateJSON:        stateJSON,
			Version:          1,
			UpdatedAtSeconds: s.clock().UTC().Unix(),
		}
		if existingPtr != nil {
			saved.Version = existingPtr.Version + 1
		}
		if err := tx.Save(&saved).Error; err != nil {
			s.logError(opMutate, "session_save_failed", err,
				zap.String("couple_id", coupleID),
				zap.String("game_type", string(gameType)))
			return newServiceError(opMutate, "session_save_failed", err)
		}
		return nil
	})
	if txErr != nil {
		return GameSession{}, txErr
	}

	if s.publisher != nil {
		s.publisher.PublishSessionChange(coupleID, gameType, saved.Version)
	}
	return saved, nil
}

func (s *Service) requireMember(ctx context.Context, coupleID, userID string) (couples.Membership, error) {
	membership, err := s.memberships.MembershipOf(ctx, coupleID)
	if err != nil {
		return couples.Membership{}, err
	}
	if !membership.Contains(userID) {
		return couples.Membership{}, ErrNotYourTurn
	}
	return membership, nil
}

func (s *Service) pick(n int) int {
	if s.rng != nil {
		return s.rng.Intn(n)
	}
	return rand.Intn(n)
}

func (s *Service) shuffle(n int, swap func(i, j int)) {
	if s.rng != nil {
		s.rng.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("games service error", attrs...)
}

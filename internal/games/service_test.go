package games

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/couples"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type staticMembershipSource struct {
	membership couples.Membership
}

func (s staticMembershipSource) MembershipOf(context.Context, string) (couples.Membership, error) {
	return s.membership, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishSessionChange(coupleID string, gameType GameType, version int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, fmt.Sprintf("%s/%s/%d", coupleID, gameType, version))
}

func (p *recordingPublisher) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.events...)
}

func newTestService(t *testing.T) (*Service, *recordingPublisher) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&GameSession{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	publisher := &recordingPublisher{}
	service, err := NewService(ServiceConfig{
		Database:    db,
		Clock:       func() time.Time { return time.Unix(1750000000, 0) },
		Memberships: staticMembershipSource{membership: testMembership()},
		Publisher:   publisher,
		Rand:        rand.New(rand.NewSource(7)),
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service, publisher
}

func TestStartTruthOrDareCreatesVersionedSession(t *testing.T) {
	service, publisher := newTestService(t)
	ctx := context.Background()

	session, err := service.StartTruthOrDare(ctx, "couple-1", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Version != 1 {
		t.Fatalf("expected version 1, got %d", session.Version)
	}
	state, err := decodeTruthOrDare(session.StateJSON)
	if err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	if state.TurnUserID != "alice" || state.InitiatorID != "alice" {
		t.Fatalf("unexpected fresh state: %+v", state)
	}
	events := publisher.all()
	if len(events) != 1 || events[0] != "couple-1/truth_or_dare/1" {
		t.Fatalf("unexpected publisher events: %v", events)
	}
}

func TestMutationsIncrementVersionMonotonically(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.StartTruthOrDare(ctx, "couple-1", "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := service.ChangeCategory(ctx, "couple-1", "alice", CategoryFunny, 0)
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if second.Version != 2 {
		t.Fatalf("expected version 2, got %d", second.Version)
	}
	third, err := service.NextRound(ctx, "couple-1", "bob", 0)
	if err != nil {
		t.Fatalf("next round: %v", err)
	}
	if third.Version != 3 {
		t.Fatalf("expected version 3, got %d", third.Version)
	}
}

func TestExpectedVersionMismatchYieldsConflict(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.StartTruthOrDare(ctx, "couple-1", "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.ChooseMode(ctx, "couple-1", "alice", ModeTruth, 1); err != nil {
		t.Fatalf("first choice: %v", err)
	}

	// A second writer still holding version 1 must be told to resync.
	if _, err := service.ChangeCategory(ctx, "couple-1", "alice", CategoryDeep, 1); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestDoubleChoiceIsRejectedEvenWithoutVersionToken(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.StartTruthOrDare(ctx, "couple-1", "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.ChooseMode(ctx, "couple-1", "alice", ModeTruth, 0); err != nil {
		t.Fatalf("first choice: %v", err)
	}
	if _, err := service.ChooseMode(ctx, "couple-1", "alice", ModeDare, 0); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected duplicate choice to be illegal, got %v", err)
	}
}

func TestMutationOnMissingSessionFails(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.NextRound(context.Background(), "couple-1", "alice", 0); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRepairHonorsOnlyElectedCaller(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.StartTruthOrDare(ctx, "couple-1", "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	corrupted, err := encodeState(TruthOrDareState{
		Category:    CategoryRomantic,
		TurnUserID:  "ghost",
		InitiatorID: "phantom",
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := service.mutateSession(ctx, "couple-1", GameTypeTruthOrDare, 0, func(*GameSession) (string, error) {
		return corrupted, nil
	}); err != nil {
		t.Fatalf("seed corrupted state: %v", err)
	}

	if _, err := service.RepairTruthOrDare(ctx, "couple-1", "bob", "alice"); !errors.Is(err, ErrNotElected) {
		t.Fatalf("expected bob to be rejected, got %v", err)
	}

	repaired, err := service.RepairTruthOrDare(ctx, "couple-1", "alice", "bob")
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	state, err := decodeTruthOrDare(repaired.StateJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.TurnUserID != "alice" || state.InitiatorID != "alice" {
		t.Fatalf("expected alice to own the repaired session, got %+v", state)
	}

	// A valid session must not be repairable.
	if _, err := service.RepairTruthOrDare(ctx, "couple-1", "alice", "bob"); !errors.Is(err, ErrHolderValid) {
		t.Fatalf("expected ErrHolderValid, got %v", err)
	}
}

func TestLoveQuizEndToEnd(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	session, err := service.StartLoveQuiz(ctx, "couple-1", "alice")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	state, err := decodeLoveQuiz(session.StateJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(state.SelectedQuestions) != quizQuestionsPerSession {
		t.Fatalf("expected %d questions, got %d", quizQuestionsPerSession, len(state.SelectedQuestions))
	}

	for round := 0; round < quizQuestionsPerSession; round++ {
		if _, err := service.SubmitQuizAnswer(ctx, "couple-1", "alice", "answer", 0); err != nil {
			t.Fatalf("round %d answer: %v", round, err)
		}
		if _, err := service.SubmitQuizAnswer(ctx, "couple-1", "bob", "guess", 0); err != nil {
			t.Fatalf("round %d guess: %v", round, err)
		}
		session, err = service.RevealQuizAnswer(ctx, "couple-1", "alice", true, 0)
		if err != nil {
			t.Fatalf("round %d reveal: %v", round, err)
		}
	}

	final, err := decodeLoveQuiz(session.StateJSON)
	if err != nil {
		t.Fatalf("decode final: %v", err)
	}
	if final.Phase != QuizPhaseComplete {
		t.Fatalf("expected complete phase, got %q", final.Phase)
	}
	if final.Score != quizQuestionsPerSession {
		t.Fatalf("expected score %d, got %d", quizQuestionsPerSession, final.Score)
	}

	restarted, err := service.StartLoveQuiz(ctx, "couple-1", "bob")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	fresh, err := decodeLoveQuiz(restarted.StateJSON)
	if err != nil {
		t.Fatalf("decode restart: %v", err)
	}
	if fresh.Score != 0 || len(fresh.Answers) != 0 {
		t.Fatalf("expected a clean session after restart, got %+v", fresh)
	}
	if fresh.InitiatorID != "bob" {
		t.Fatalf("expected bob as the new initiator, got %q", fresh.InitiatorID)
	}
	if restarted.Version != session.Version+1 {
		t.Fatalf("restart must continue the version sequence: %d -> %d", session.Version, restarted.Version)
	}
}

func TestReadSessionMissingRow(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.ReadSession(context.Background(), "couple-1", GameTypeLoveQuiz); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestOutsiderCannotMutateSessions(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	if _, err := service.StartTruthOrDare(ctx, "couple-1", "mallory"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected outsider start to be rejected, got %v", err)
	}
}

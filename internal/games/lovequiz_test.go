package games

import (
	"errors"
	"testing"
)

func identityShuffle(n int, swap func(i, j int)) {}

func TestNewLoveQuizStateSamplesWithoutReplacement(t *testing.T) {
	state := NewLoveQuizState("alice", identityShuffle)
	if len(state.SelectedQuestions) != quizQuestionsPerSession {
		t.Fatalf("expected %d questions, got %d", quizQuestionsPerSession, len(state.SelectedQuestions))
	}
	seen := make(map[string]struct{}, len(state.SelectedQuestions))
	for _, question := range state.SelectedQuestions {
		if _, duplicate := seen[question]; duplicate {
			t.Fatalf("question sampled twice: %q", question)
		}
		seen[question] = struct{}{}
	}
	if state.Phase != QuizPhasePlaying || state.RoundStep != RoundStepAnswering {
		t.Fatalf("unexpected initial phase %q step %q", state.Phase, state.RoundStep)
	}
	if state.InitiatorID != "alice" {
		t.Fatalf("expected alice as initiator, got %q", state.InitiatorID)
	}
}

func TestWithAnswerRejectsEmptyText(t *testing.T) {
	state := NewLoveQuizState("alice", identityShuffle)
	if _, err := state.WithAnswer("   ", "alice", testMembership()); !errors.Is(err, ErrEmptyAnswer) {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}
}

func TestWithAnswerEnforcesRoundStepOwnership(t *testing.T) {
	membership := testMembership()
	state := NewLoveQuizState("alice", identityShuffle)

	if _, err := state.WithAnswer("guess", "bob", membership); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected guesser to be rejected during answering, got %v", err)
	}

	answered, err := state.WithAnswer("blue", "alice", membership)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answered.RoundStep != RoundStepGuessing {
		t.Fatalf("expected guessing step, got %q", answered.RoundStep)
	}

	if _, err := answered.WithAnswer("again", "alice", membership); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected initiator to be rejected during guessing, got %v", err)
	}
	if _, err := answered.WithAnswer("guess", "mallory", membership); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected outsider to be rejected, got %v", err)
	}

	guessed, err := answered.WithAnswer("blue", "bob", membership)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if guessed.Phase != QuizPhaseReveal || guessed.RoundStep != RoundStepRevealing {
		t.Fatalf("expected reveal step, got phase=%q step=%q", guessed.Phase, guessed.RoundStep)
	}
	record := guessed.Answers[0]
	if record.PlayerAnswer != "blue" || record.PartnerAnswer != "blue" {
		t.Fatalf("unexpected round record: %+v", record)
	}
}

func TestWithRevealAdvancesOrCompletes(t *testing.T) {
	membership := testMembership()
	state := NewLoveQuizState("alice", identityShuffle)

	for round := 0; round < quizQuestionsPerSession; round++ {
		answered, err := state.WithAnswer("answer", "alice", membership)
		if err != nil {
			t.Fatalf("round %d: answer error: %v", round, err)
		}
		guessed, err := answered.WithAnswer("guess", "bob", membership)
		if err != nil {
			t.Fatalf("round %d: guess error: %v", round, err)
		}
		if _, err := guessed.WithReveal(true, "bob"); !errors.Is(err, ErrNotYourTurn) {
			t.Fatalf("round %d: expected guesser reveal to be rejected, got %v", round, err)
		}
		revealed, err := guessed.WithReveal(round%2 == 0, "alice")
		if err != nil {
			t.Fatalf("round %d: reveal error: %v", round, err)
		}
		state = revealed
	}

	if state.Phase != QuizPhaseComplete {
		t.Fatalf("expected complete phase, got %q", state.Phase)
	}
	if state.Score != 3 {
		t.Fatalf("expected score 3 of 5, got %d", state.Score)
	}
	if len(state.Answers) != quizQuestionsPerSession {
		t.Fatalf("expected %d round records, got %d", quizQuestionsPerSession, len(state.Answers))
	}
	if _, err := state.WithAnswer("late", "alice", membership); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected completed session to reject answers, got %v", err)
	}
}

func TestScoreIsMonotoneAndBounded(t *testing.T) {
	membership := testMembership()
	state := NewLoveQuizState("alice", identityShuffle)

	previousScore := 0
	for round := 0; round < quizQuestionsPerSession; round++ {
		answered, err := state.WithAnswer("answer", "alice", membership)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		guessed, err := answered.WithAnswer("guess", "bob", membership)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		revealed, err := guessed.WithReveal(true, "alice")
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		if revealed.Score < previousScore {
			t.Fatalf("score decreased from %d to %d", previousScore, revealed.Score)
		}
		answeredRounds := 0
		for _, record := range revealed.Answers {
			if record.IsCorrect != nil {
				answeredRounds++
			}
		}
		if revealed.Score > answeredRounds {
			t.Fatalf("score %d exceeds revealed rounds %d", revealed.Score, answeredRounds)
		}
		previousScore = revealed.Score
		state = revealed
	}
	if state.Score != quizQuestionsPerSession {
		t.Fatalf("expected perfect score %d, got %d", quizQuestionsPerSession, state.Score)
	}
}

func TestWithRevealRejectedOutsideRevealStep(t *testing.T) {
	state := NewLoveQuizState("alice", identityShuffle)
	if _, err := state.WithReveal(true, "alice"); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

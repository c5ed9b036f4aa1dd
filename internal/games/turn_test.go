package games

import "testing"

func containsAction(actions []Action, wanted Action) bool {
	for _, action := range actions {
		if action == wanted {
			return true
		}
	}
	return false
}

func TestResolveTruthOrDareHolderBeforeChoice(t *testing.T) {
	state := NewTruthOrDareState("alice")
	decision := ResolveTruthOrDare(state, "alice", testMembership())
	if !decision.MyTurn {
		t.Fatalf("expected alice to hold the turn")
	}
	for _, wanted := range []Action{ActionChangeCategory, ActionChooseMode, ActionNextRound} {
		if !containsAction(decision.Actions, wanted) {
			t.Fatalf("expected action %q, got %v", wanted, decision.Actions)
		}
	}
}

func TestResolveTruthOrDareAfterChoiceOnlyNextRound(t *testing.T) {
	state := NewTruthOrDareState("alice")
	chosen, err := state.WithChoice(ModeTruth, "alice", firstPrompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decision := ResolveTruthOrDare(chosen, "alice", testMembership())
	if !decision.MyTurn {
		t.Fatalf("expected alice to still hold the turn")
	}
	if len(decision.Actions) != 1 || decision.Actions[0] != ActionNextRound {
		t.Fatalf("expected only next_round, got %v", decision.Actions)
	}
}

func TestResolveTruthOrDareNonHolderCanStillAdvance(t *testing.T) {
	state := NewTruthOrDareState("alice")
	decision := ResolveTruthOrDare(state, "bob", testMembership())
	if decision.MyTurn {
		t.Fatalf("bob does not hold the turn")
	}
	if len(decision.Actions) != 1 || decision.Actions[0] != ActionNextRound {
		t.Fatalf("expected only next_round for the waiting member, got %v", decision.Actions)
	}
}

func TestResolveTruthOrDareOutsiderGetsNothing(t *testing.T) {
	state := NewTruthOrDareState("alice")
	decision := ResolveTruthOrDare(state, "mallory", testMembership())
	if decision.MyTurn || len(decision.Actions) != 0 {
		t.Fatalf("expected empty decision for outsider, got %+v", decision)
	}
}

func TestResolveLoveQuizStepOwnership(t *testing.T) {
	membership := testMembership()
	tests := []struct {
		name         string
		step         RoundStep
		phase        QuizPhase
		user         string
		expectTurn   bool
		expectAction Action
	}{
		{name: "initiator answers", step: RoundStepAnswering, phase: QuizPhasePlaying, user: "alice", expectTurn: true, expectAction: ActionAnswer},
		{name: "partner waits while answering", step: RoundStepAnswering, phase: QuizPhasePlaying, user: "bob", expectTurn: false},
		{name: "partner guesses", step: RoundStepGuessing, phase: QuizPhasePlaying, user: "bob", expectTurn: true, expectAction: ActionGuess},
		{name: "initiator waits while guessing", step: RoundStepGuessing, phase: QuizPhasePlaying, user: "alice", expectTurn: false},
		{name: "initiator reveals", step: RoundStepRevealing, phase: QuizPhaseReveal, user: "alice", expectTurn: true, expectAction: ActionReveal},
		{name: "partner waits during reveal", step: RoundStepRevealing, phase: QuizPhaseReveal, user: "bob", expectTurn: false},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			state := LoveQuizState{Phase: testCase.phase, RoundStep: testCase.step, InitiatorID: "alice"}
			decision := ResolveLoveQuiz(state, testCase.user, membership)
			if decision.MyTurn != testCase.expectTurn {
				t.Fatalf("expected my_turn=%v, got %v", testCase.expectTurn, decision.MyTurn)
			}
			if testCase.expectTurn {
				if len(decision.Actions) != 1 || decision.Actions[0] != testCase.expectAction {
					t.Fatalf("expected action %q, got %v", testCase.expectAction, decision.Actions)
				}
			} else if len(decision.Actions) != 0 {
				t.Fatalf("expected no actions, got %v", decision.Actions)
			}
		})
	}
}

func TestResolveLoveQuizCompleteYieldsNobody(t *testing.T) {
	state := LoveQuizState{Phase: QuizPhaseComplete, RoundStep: RoundStepRevealing, InitiatorID: "alice"}
	for _, user := range []string{"alice", "bob"} {
		decision := ResolveLoveQuiz(state, user, testMembership())
		if decision.MyTurn || len(decision.Actions) != 0 {
			t.Fatalf("expected empty decision for %s on a complete session, got %+v", user, decision)
		}
	}
}

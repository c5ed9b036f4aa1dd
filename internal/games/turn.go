package games

import "github.com/entwine-labs/entwine/backend/internal/couples"

// Action enumerates the finite legal moves a participant can make.
type Action string

const (
	ActionChangeCategory Action = "change_category"
	ActionChooseMode     Action = "choose_mode"
	ActionNextRound      Action = "next_round"
	ActionAnswer         Action = "answer"
	ActionGuess          Action = "guess"
	ActionReveal         Action = "reveal"
)

// TurnDecision reports whether the local user holds the turn and which
// actions are currently legal for them. Absence of a session or of a
// matching identity simply yields an empty decision.
type TurnDecision struct {
	MyTurn  bool
	Actions []Action
}

// ResolveTruthOrDare computes the local user's standing in a Truth-or-Dare
// session. The turn holder may change category or choose a mode while none
// is chosen; advancing to the next round is legal for either member (the
// original wires both "skip" and "task completed" to the same transition).
func ResolveTruthOrDare(state TruthOrDareState, localUserID string, membership couples.Membership) TurnDecision {
	if !membership.Contains(localUserID) {
		return TurnDecision{}
	}

	decision := TurnDecision{MyTurn: SameIdentity(localUserID, state.TurnUserID)}
	if decision.MyTurn && state.Mode == ModeNone {
		decision.Actions = append(decision.Actions, ActionChangeCategory, ActionChooseMode)
	}
	decision.Actions = append(decision.Actions, ActionNextRound)
	return decision
}

// ResolveLoveQuiz computes the local user's standing in a Love Quiz session.
// Turn ownership depends on the round step: the initiator answers and
// reveals, the non-initiator guesses, and nobody acts once complete.
func ResolveLoveQuiz(state LoveQuizState, localUserID string, membership couples.Membership) TurnDecision {
	if !membership.Contains(localUserID) || state.Phase == QuizPhaseComplete {
		return TurnDecision{}
	}

	isInitiator := SameIdentity(localUserID, state.InitiatorID)
	switch state.RoundStep {
	case RoundStepAnswering:
		if isInitiator {
			return TurnDecision{MyTurn: true, Actions: []Action{ActionAnswer}}
		}
	case RoundStepGuessing:
		if !isInitiator {
			return TurnDecision{MyTurn: true, Actions: []Action{ActionGuess}}
		}
	case RoundStepRevealing:
		if isInitiator {
			return TurnDecision{MyTurn: true, Actions: []Action{ActionReveal}}
		}
	}
	return TurnDecision{}
}

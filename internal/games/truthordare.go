package games

import "github.com/entwine-labs/entwine/backend/internal/couples"

// NewTruthOrDareState starts a fresh session with the caller as both the
// turn holder and the initiator (the repair tie-breaker).
func NewTruthOrDareState(userID string) TruthOrDareState {
	return TruthOrDareState{
		Category:    CategoryRomantic,
		Mode:        ModeNone,
		TurnUserID:  userID,
		InitiatorID: userID,
	}
}

// WithCategory switches the prompt category. Legal only for the turn
// holder; any pending mode and prompt are cleared so the next choice draws
// from the new category.
func (s TruthOrDareState) WithCategory(category Category, callerID string) (TruthOrDareState, error) {
	if !SameIdentity(callerID, s.TurnUserID) {
		return TruthOrDareState{}, ErrNotYourTurn
	}
	next := s
	next.Category = category
	next.Mode = ModeNone
	next.CurrentPrompt = ""
	return next, nil
}

// WithChoice records a truth/dare pick and draws a uniformly random prompt
// from the pool for (category, mode). Legal only for the turn holder and
// only while no choice has been made this round.
func (s TruthOrDareState) WithChoice(mode Mode, callerID string, pick func(n int) int) (TruthOrDareState, error) {
	if !SameIdentity(callerID, s.TurnUserID) {
		return TruthOrDareState{}, ErrNotYourTurn
	}
	if s.Mode != ModeNone {
		return TruthOrDareState{}, ErrIllegalTransition
	}
	pool := promptPool(s.Category, mode)
	if len(pool) == 0 {
		return TruthOrDareState{}, ErrInvalidMode
	}
	next := s
	next.Mode = mode
	next.CurrentPrompt = pool[pick(len(pool))]
	return next, nil
}

// WithNextRound hands the turn to the other member and clears the round.
// Legal for either member; "skip" and "task completed" are the same
// transition. Alternation is keyed off the couple's canonical user1/user2
// ordering rather than whoever acted last, so repeated skips from either
// side still alternate correctly.
func (s TruthOrDareState) WithNextRound(callerID string, membership couples.Membership) (TruthOrDareState, error) {
	if !membership.Contains(callerID) {
		return TruthOrDareState{}, ErrNotYourTurn
	}
	next := s
	if SameIdentity(s.TurnUserID, membership.User1ID) {
		if membership.User2ID != "" {
			next.TurnUserID = membership.User2ID
		} else {
			next.TurnUserID = membership.User1ID
		}
	} else {
		next.TurnUserID = membership.User1ID
	}
	next.Mode = ModeNone
	next.CurrentPrompt = ""
	return next, nil
}

package games

import (
	"sort"

	"github.com/entwine-labs/entwine/backend/internal/couples"
)

// The shared-blob design has no per-field arbitration, so a session can end
// up with a turn assigned to an identity that is neither member (stale
// partner reference, mid-pairing writes). The monitor detects that state
// and elects a single repairer so both clients do not issue duplicate
// corrective writes.

// validTurnHolders is the defensive union of every identity that could
// legitimately hold the turn: the local user, the known partner, and both
// canonical members. The partner id may not yet be resolved on the caller's
// side, hence the union rather than membership alone.
func validTurnHolders(localUserID, partnerID string, membership couples.Membership) map[string]struct{} {
	holders := make(map[string]struct{}, 4)
	for _, id := range []string{localUserID, partnerID, membership.User1ID, membership.User2ID} {
		if normalized := NormalizeIdentity(id); normalized != "" {
			holders[normalized] = struct{}{}
		}
	}
	return holders
}

// HolderInvalid reports whether the session's turn holder is empty or
// outside the set of valid holders.
func HolderInvalid(state TruthOrDareState, localUserID, partnerID string, membership couples.Membership) bool {
	holder := NormalizeIdentity(state.TurnUserID)
	if holder == "" {
		return true
	}
	_, ok := validTurnHolders(localUserID, partnerID, membership)[holder]
	return !ok
}

// ElectRepairer decides whether the local user is the one allowed to issue
// the corrective write. The initiator is preferred when it is itself a
// valid holder; when the initiator is also invalid, the tie is broken by
// lexicographic identity order between the local user and the partner.
// Only one side satisfies the predicate at a time, which avoids duplicate
// repairs in the common case (true simultaneity is not guaranteed).
func ElectRepairer(state TruthOrDareState, localUserID, partnerID string, membership couples.Membership) bool {
	valid := validTurnHolders(localUserID, partnerID, membership)
	initiator := NormalizeIdentity(state.InitiatorID)
	if _, ok := valid[initiator]; ok && initiator != "" {
		return initiator == NormalizeIdentity(localUserID)
	}

	candidates := make([]string, 0, 2)
	for _, id := range []string{localUserID, partnerID} {
		if normalized := NormalizeIdentity(id); normalized != "" {
			candidates = append(candidates, normalized)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	sort.Strings(candidates)
	return candidates[0] == NormalizeIdentity(localUserID)
}

// RepairState resets the session so the repairer owns the turn and becomes
// the new initiator.
func RepairState(state TruthOrDareState, repairerID string) TruthOrDareState {
	next := state
	next.TurnUserID = repairerID
	next.InitiatorID = repairerID
	return next
}

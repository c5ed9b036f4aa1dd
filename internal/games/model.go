package games

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// GameType identifies one of the two-player games sharing the session table.
type GameType string

const (
	// GameTypeTruthOrDare identifies the Truth-or-Dare session.
	GameTypeTruthOrDare GameType = "truth_or_dare"
	// GameTypeLoveQuiz identifies the Love Quiz session.
	GameTypeLoveQuiz GameType = "love_quiz"
)

// ParseGameType validates raw input and returns a GameType.
func ParseGameType(rawInput string) (GameType, error) {
	switch strings.ToLower(strings.TrimSpace(rawInput)) {
	case string(GameTypeTruthOrDare):
		return GameTypeTruthOrDare, nil
	case string(GameTypeLoveQuiz):
		return GameTypeLoveQuiz, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGameType, rawInput)
	}
}

var (
	// ErrInvalidGameType indicates an unknown game type identifier.
	ErrInvalidGameType = errors.New("games: invalid game type")
	// ErrSessionNotFound indicates no session row exists for the couple and game type.
	ErrSessionNotFound = errors.New("games: session not found")
	// ErrNotYourTurn indicates the caller is not the expected actor for the current state.
	ErrNotYourTurn = errors.New("games: not your turn")
	// ErrIllegalTransition indicates the requested action is not legal for the current state.
	ErrIllegalTransition = errors.New("games: illegal transition")
	// ErrVersionConflict indicates the caller acted on a stale session version.
	ErrVersionConflict = errors.New("games: session version conflict")
	// ErrInvalidCategory indicates an unknown Truth-or-Dare category.
	ErrInvalidCategory = errors.New("games: invalid category")
	// ErrInvalidMode indicates an unknown Truth-or-Dare mode.
	ErrInvalidMode = errors.New("games: invalid mode")
	// ErrEmptyAnswer indicates a quiz answer was empty after trimming.
	ErrEmptyAnswer = errors.New("games: answer must not be empty")
	// ErrNotElected indicates the caller is not the elected repairer for an invalid session.
	ErrNotElected = errors.New("games: caller is not the elected repairer")
	// ErrHolderValid indicates a repair was requested for a session whose turn holder is valid.
	ErrHolderValid = errors.New("games: turn holder is valid")
)

// GameSession is the single persisted row per (couple, game type) holding
// the entire current game state as one JSON blob.
type GameSession struct {
	CoupleID         string `gorm:"column:couple_id;primaryKey;size:190;not null"`
	GameType         string `gorm:"column:game_type;primaryKey;size:64;not null"`
	StateJSON        string `gorm:"column:state_json;type:text;not null"`
	Version          int64  `gorm:"column:version;not null;default:1"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName exposes the table backing game sessions.
func (GameSession) TableName() string {
	return "game_sessions"
}

// NormalizeIdentity canonicalizes a user identity for comparison. Identities
// originate from a backend capable of mixed-case identifiers and are compared
// lower-cased throughout.
func NormalizeIdentity(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// SameIdentity reports whether two identities refer to the same user.
func SameIdentity(a, b string) bool {
	normalized := NormalizeIdentity(a)
	return normalized != "" && normalized == NormalizeIdentity(b)
}

// TruthOrDareState is the session blob for the Truth-or-Dare game.
// An empty Mode means no choice has been made yet this round.
type TruthOrDareState struct {
	Category      Category `json:"category"`
	Mode          Mode     `json:"mode"`
	CurrentPrompt string   `json:"currentPrompt"`
	TurnUserID    string   `json:"turnUserId"`
	InitiatorID   string   `json:"initiatorId"`
}

// Category enumerates the fixed Truth-or-Dare prompt categories.
type Category string

const (
	CategoryRomantic Category = "romantic"
	CategorySpicy    Category = "spicy"
	CategoryFunny    Category = "funny"
	CategoryDeep     Category = "deep"
)

// ParseCategory validates raw input and returns a Category.
func ParseCategory(rawInput string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(rawInput))) {
	case CategoryRomantic:
		return CategoryRomantic, nil
	case CategorySpicy:
		return CategorySpicy, nil
	case CategoryFunny:
		return CategoryFunny, nil
	case CategoryDeep:
		return CategoryDeep, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, rawInput)
	}
}

// Mode enumerates the Truth-or-Dare round choices. ModeNone marks a round
// where no choice has been made yet.
type Mode string

const (
	ModeNone  Mode = ""
	ModeTruth Mode = "truth"
	ModeDare  Mode = "dare"
)

// ParseMode validates raw input and returns a Mode.
func ParseMode(rawInput string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(rawInput))) {
	case ModeTruth:
		return ModeTruth, nil
	case ModeDare:
		return ModeDare, nil
	default:
		return ModeNone, fmt.Errorf("%w: %q", ErrInvalidMode, rawInput)
	}
}

// QuizPhase enumerates the Love Quiz top-level phases.
type QuizPhase string

const (
	QuizPhaseSetup    QuizPhase = "setup"
	QuizPhasePlaying  QuizPhase = "playing"
	QuizPhaseReveal   QuizPhase = "reveal"
	QuizPhaseComplete QuizPhase = "complete"
)

// RoundStep enumerates the per-round sub-steps of the Love Quiz.
type RoundStep string

const (
	RoundStepAnswering RoundStep = "answering"
	RoundStepGuessing  RoundStep = "guessing"
	RoundStepRevealing RoundStep = "revealing"
)

// QuizAnswer records one completed or in-flight round.
type QuizAnswer struct {
	Question      string `json:"question"`
	PlayerAnswer  string `json:"playerAnswer"`
	PartnerAnswer string `json:"partnerAnswer"`
	IsCorrect     *bool  `json:"isCorrect,omitempty"`
}

// LoveQuizState is the session blob for the Love Quiz game. The initiator is
// the subject whose self-knowledge is being tested.
type LoveQuizState struct {
	Phase                QuizPhase    `json:"phase"`
	RoundStep            RoundStep    `json:"roundStep"`
	CurrentQuestionIndex int          `json:"currentQuestionIndex"`
	SelectedQuestions    []string     `json:"selectedQuestions"`
	Answers              []QuizAnswer `json:"answers"`
	Score                int          `json:"score"`
	InitiatorID          string       `json:"initiatorId"`
}

func decodeTruthOrDare(raw string) (TruthOrDareState, error) {
	var state TruthOrDareState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return TruthOrDareState{}, fmt.Errorf("games: decode truth-or-dare state: %w", err)
	}
	return state, nil
}

func decodeLoveQuiz(raw string) (LoveQuizState, error) {
	var state LoveQuizState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return LoveQuizState{}, fmt.Errorf("games: decode love-quiz state: %w", err)
	}
	return state, nil
}

func encodeState(state interface{}) (string, error) {
	encoded, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("games: encode state: %w", err)
	}
	return string(encoded), nil
}

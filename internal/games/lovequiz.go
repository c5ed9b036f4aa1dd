package games

import (
	"strings"

	"github.com/entwine-labs/entwine/backend/internal/couples"
)

// NewLoveQuizState starts a fresh quiz with the caller as the subject being
// guessed about. Questions are a shuffle-and-slice sample without
// replacement from the static pool; restarting samples independently, so
// prompts may repeat across sessions.
func NewLoveQuizState(userID string, shuffle func(n int, swap func(i, j int))) LoveQuizState {
	sample := make([]string, len(loveQuizPool))
	copy(sample, loveQuizPool)
	shuffle(len(sample), func(i, j int) {
		sample[i], sample[j] = sample[j], sample[i]
	})
	return LoveQuizState{
		Phase:                QuizPhasePlaying,
		RoundStep:            RoundStepAnswering,
		CurrentQuestionIndex: 0,
		SelectedQuestions:    sample[:quizQuestionsPerSession],
		Answers:              []QuizAnswer{},
		Score:                0,
		InitiatorID:          userID,
	}
}

// WithAnswer applies a submitted answer. During answering the initiator's
// answer opens a new round record and hands the step to the guesser; during
// guessing the partner's answer fills the record and moves to the reveal.
func (s LoveQuizState) WithAnswer(text, callerID string, membership couples.Membership) (LoveQuizState, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return LoveQuizState{}, ErrEmptyAnswer
	}
	if s.Phase == QuizPhaseComplete {
		return LoveQuizState{}, ErrIllegalTransition
	}

	isInitiator := SameIdentity(callerID, s.InitiatorID)
	next := s
	switch s.RoundStep {
	case RoundStepAnswering:
		if !isInitiator {
			return LoveQuizState{}, ErrNotYourTurn
		}
		if s.CurrentQuestionIndex >= len(s.SelectedQuestions) {
			return LoveQuizState{}, ErrIllegalTransition
		}
		next.Answers = append(append([]QuizAnswer{}, s.Answers...), QuizAnswer{
			Question:     s.SelectedQuestions[s.CurrentQuestionIndex],
			PlayerAnswer: trimmed,
		})
		next.RoundStep = RoundStepGuessing
	case RoundStepGuessing:
		if isInitiator || !membership.Contains(callerID) {
			return LoveQuizState{}, ErrNotYourTurn
		}
		if s.CurrentQuestionIndex >= len(s.Answers) {
			return LoveQuizState{}, ErrIllegalTransition
		}
		next.Answers = append([]QuizAnswer{}, s.Answers...)
		next.Answers[s.CurrentQuestionIndex].PartnerAnswer = trimmed
		next.Phase = QuizPhaseReveal
		next.RoundStep = RoundStepRevealing
	default:
		return LoveQuizState{}, ErrIllegalTransition
	}
	return next, nil
}

// WithReveal records the initiator's correctness judgement and either
// advances to the next question or completes the session. Score is
// monotone within a session and never exceeds the number of answers.
func (s LoveQuizState) WithReveal(isCorrect bool, callerID string) (LoveQuizState, error) {
	if !SameIdentity(callerID, s.InitiatorID) {
		return LoveQuizState{}, ErrNotYourTurn
	}
	if s.RoundStep != RoundStepRevealing || s.CurrentQuestionIndex >= len(s.Answers) {
		return LoveQuizState{}, ErrIllegalTransition
	}

	next := s
	next.Answers = append([]QuizAnswer{}, s.Answers...)
	verdict := isCorrect
	next.Answers[s.CurrentQuestionIndex].IsCorrect = &verdict
	if isCorrect {
		next.Score = s.Score + 1
	}

	if s.CurrentQuestionIndex+1 < len(s.SelectedQuestions) {
		next.CurrentQuestionIndex = s.CurrentQuestionIndex + 1
		next.Phase = QuizPhasePlaying
		next.RoundStep = RoundStepAnswering
	} else {
		next.Phase = QuizPhaseComplete
	}
	return next, nil
}

package server

import (
	"encoding/json"
	"net/http"

	"github.com/entwine-labs/entwine/backend/internal/couples"
	"github.com/entwine-labs/entwine/backend/internal/games"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type sessionResponsePayload struct {
	CoupleID         string          `json:"couple_id"`
	GameType         string          `json:"game_type"`
	Version          int64           `json:"version"`
	UpdatedAtSeconds int64           `json:"updated_at_s"`
	State            json.RawMessage `json:"state"`
	MyTurn           bool            `json:"my_turn"`
	Actions          []games.Action  `json:"actions"`
	Repaired         bool            `json:"repaired,omitempty"`
}

type categoryRequestPayload struct {
	Category        string `json:"category"`
	ExpectedVersion int64  `json:"expected_version"`
}

type choiceRequestPayload struct {
	Mode            string `json:"mode"`
	ExpectedVersion int64  `json:"expected_version"`
}

type nextRoundRequestPayload struct {
	ExpectedVersion int64 `json:"expected_version"`
}

type repairRequestPayload struct {
	PartnerID string `json:"partner_id"`
}

type quizAnswerRequestPayload struct {
	Text            string `json:"text"`
	ExpectedVersion int64  `json:"expected_version"`
}

type quizRevealRequestPayload struct {
	IsCorrect       bool  `json:"is_correct"`
	ExpectedVersion int64 `json:"expected_version"`
}

func (h *httpHandler) handleReadSession(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	gameType, err := games.ParseGameType(c.Param("gameType"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	session, err := h.games.ReadSession(c.Request.Context(), couple.CoupleID, gameType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, couple, userID, session, false)
}

func (h *httpHandler) handleTruthOrDareStart(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	session, err := h.games.StartTruthOrDare(c.Request.Context(), couple.CoupleID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, couple, userID, session, false)
}

func (h *httpHandler) handleTruthOrDareCategory(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	var request categoryRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	category, err := games.ParseCategory(request.Category)
	if err != nil {
		h.respondError(c, err)
		return
	}
	session, err := h.games.ChangeCategory(c.Request.Context(), couple.CoupleID, userID, category, request.ExpectedVersion)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, couple, userID, session, false)
}

func (h *httpHandler) handleTruthOrDareChoice(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	var request choiceRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	mode, err := games.ParseMode(request.Mode)
	if err != nil {
		h.respondError(c, err)
		return
	}
	session, err := h.games.ChooseMode(c.Request.Context(), couple.CoupleID, userID, mode, request.ExpectedVersion)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, couple, userID, session, false)
}

func (h *httpHandler) handleTruthOrDareNext(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	var request nextRoundRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	session, err := h.games.NextRound(c.Request.Context(), couple.CoupleID, userID, request.ExpectedVersion)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, couple, userID, session, false)
}

func (h *httpHandler) handleTruthOrDareRepair(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	var request repairRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	session, err := h.games.RepairTruthOrDare(c.Request.Context(), couple.CoupleID, userID, request.PartnerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.logger.Info("turn holder repaired",
		zap.String("couple_id", couple.CoupleID),
		zap.String("repairer", userID))
	h.respondSession(c, couple, userID, session, true)
}

func (h *httpHandler) handleLoveQuizStart(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	session, err := h.games.StartLoveQuiz(c.Request.Context(), couple.CoupleID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, couple, userID, session, false)
}

func (h *httpHandler) handleLoveQuizAnswer(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	var request quizAnswerRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	session, err := h.games.SubmitQuizAnswer(c.Request.Context(), couple.CoupleID, userID, request.Text, request.ExpectedVersion)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, couple, userID, session, false)
}

func (h *httpHandler) handleLoveQuizReveal(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	var request quizRevealRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	session, err := h.games.RevealQuizAnswer(c.Request.Context(), couple.CoupleID, userID, request.IsCorrect, request.ExpectedVersion)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c, couple, userID, session, false)
}

// respondSession renders a session row plus the caller's turn standing so
// clients never have to re-derive "is it my turn" locally.
func (h *httpHandler) respondSession(c *gin.Context, couple couples.Couple, userID string, session games.GameSession, repaired bool) {
	membership := couples.Membership{User1ID: couple.User1ID, User2ID: couple.User2ID}
	decision := resolveDecision(session, userID, membership)
	c.JSON(http.StatusOK, sessionResponsePayload{
		CoupleID:         session.CoupleID,
		GameType:         session.GameType,
		Version:          session.Version,
		UpdatedAtSeconds: session.UpdatedAtSeconds,
		State:            json.RawMessage(session.StateJSON),
		MyTurn:           decision.MyTurn,
		Actions:          decision.Actions,
		Repaired:         repaired,
	})
}

func resolveDecision(session games.GameSession, userID string, membership couples.Membership) games.TurnDecision {
	switch games.GameType(session.GameType) {
	case games.GameTypeTruthOrDare:
		var state games.TruthOrDareState
		if err := json.Unmarshal([]byte(session.StateJSON), &state); err != nil {
			return games.TurnDecision{}
		}
		return games.ResolveTruthOrDare(state, userID, membership)
	case games.GameTypeLoveQuiz:
		var state games.LoveQuizState
		if err := json.Unmarshal([]byte(session.StateJSON), &state); err != nil {
			return games.TurnDecision{}
		}
		return games.ResolveLoveQuiz(state, userID, membership)
	default:
		return games.TurnDecision{}
	}
}

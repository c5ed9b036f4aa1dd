package server

import (
	"net/http"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/cycle"
	"github.com/gin-gonic/gin"
)

const cycleDateLayout = "2006-01-02"

type cycleProfileRequestPayload struct {
	CoupleID          string `json:"couple_id"`
	LastPeriodStart   string `json:"last_period_start"`
	AvgCycleLength    int    `json:"avg_cycle_length"`
	AvgPeriodLength   int    `json:"avg_period_length"`
	SharedWithPartner bool   `json:"shared_with_partner"`
}

type dailyLogRequestPayload struct {
	Date       string `json:"date"`
	IsPeriod   bool   `json:"is_period"`
	Flow       string `json:"flow"`
	SymptomIDs []uint `json:"symptom_ids"`
	Notes      string `json:"notes"`
}

func (h *httpHandler) handleUpsertCycleProfile(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	var request cycleProfileRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	lastStart, err := time.Parse(cycleDateLayout, request.LastPeriodStart)
	if err != nil {
		h.respondError(c, cycle.ErrInvalidProfile)
		return
	}
	profile, err := h.cycle.UpsertProfile(c.Request.Context(), userID, cycle.ProfileInput{
		CoupleID:          request.CoupleID,
		LastPeriodStart:   lastStart,
		AvgCycleLength:    request.AvgCycleLength,
		AvgPeriodLength:   request.AvgPeriodLength,
		SharedWithPartner: request.SharedWithPartner,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *httpHandler) handleGetCycleProfile(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	profile, err := h.cycle.ProfileFor(c.Request.Context(), userID, c.Param("userID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *httpHandler) handleCycleSummary(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	today := time.Time{}
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(cycleDateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		today = parsed
	}
	summary, err := h.cycle.SummaryFor(c.Request.Context(), userID, c.Param("userID"), today)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *httpHandler) handleUpsertDailyLog(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	var request dailyLogRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	date, err := time.Parse(cycleDateLayout, request.Date)
	if err != nil {
		h.respondError(c, cycle.ErrInvalidProfile)
		return
	}
	record, err := h.cycle.UpsertDailyLog(c.Request.Context(), userID, cycle.LogInput{
		Date:       date,
		IsPeriod:   request.IsPeriod,
		Flow:       request.Flow,
		SymptomIDs: request.SymptomIDs,
		Notes:      request.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *httpHandler) handleListDailyLogs(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(cycleDateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(cycleDateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		to = parsed
	}
	logs, err := h.cycle.ListDailyLogs(c.Request.Context(), userID, c.Param("userID"), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

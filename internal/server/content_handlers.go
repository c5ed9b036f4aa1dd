package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type joinCoupleRequestPayload struct {
	InviteCode string `json:"invite_code"`
}

func (h *httpHandler) handleCreateCouple(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	couple, err := h.couples.Create(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"couple_id":   couple.CoupleID,
		"invite_code": couple.InviteCode,
		"user1_id":    couple.User1ID,
	})
}

func (h *httpHandler) handleJoinCouple(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	var request joinCoupleRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	couple, err := h.couples.Join(c.Request.Context(), request.InviteCode, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"couple_id": couple.CoupleID,
		"user1_id":  couple.User1ID,
		"user2_id":  couple.User2ID,
	})
}

func (h *httpHandler) handleMembers(c *gin.Context) {
	couple, _, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user1_id": couple.User1ID,
		"user2_id": couple.User2ID,
	})
}

// handleCoupleSummary serves the dashboard counters in one call.
func (h *httpHandler) handleCoupleSummary(c *gin.Context) {
	couple, _, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	letterCount, err := h.letters.Count(ctx, couple.CoupleID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	photoCount, err := h.albums.CountPhotos(ctx, couple.CoupleID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	milestoneCount, err := h.milestones.Count(ctx, couple.CoupleID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	daysTogether := int64(0)
	if couple.AnniversaryAtSeconds > 0 {
		daysTogether = (time.Now().UTC().Unix() - couple.AnniversaryAtSeconds) / 86400
	}
	c.JSON(http.StatusOK, gin.H{
		"letters":       letterCount,
		"photos":        photoCount,
		"milestones":    milestoneCount,
		"days_together": daysTogether,
	})
}

type createLetterRequestPayload struct {
	Title           string `json:"title"`
	Body            string `json:"body"`
	UnsealAtSeconds int64  `json:"unseal_at_s"`
}

func (h *httpHandler) handleCreateLetter(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	var request createLetterRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	letter, err := h.letters.Create(c.Request.Context(), couple.CoupleID, userID, request.Title, request.Body, request.UnsealAtSeconds)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, letter)
}

func (h *httpHandler) handleListLetters(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	results, err := h.letters.List(c.Request.Context(), couple.CoupleID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"letters": results})
}

func (h *httpHandler) handleGetLetter(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	letter, err := h.letters.Get(c.Request.Context(), couple.CoupleID, c.Param("letterID"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, letter)
}

func (h *httpHandler) handleDeleteLetter(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	if err := h.letters.Delete(c.Request.Context(), couple.CoupleID, c.Param("letterID"), userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type createAlbumRequestPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type addPhotoRequestPayload struct {
	ImageURL       string `json:"image_url"`
	Caption        string `json:"caption"`
	TakenAtSeconds int64  `json:"taken_at_s"`
}

func (h *httpHandler) handleCreateAlbum(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	var request createAlbumRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	album, err := h.albums.CreateAlbum(c.Request.Context(), couple.CoupleID, userID, request.Title, request.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, album)
}

func (h *httpHandler) handleListAlbums(c *gin.Context) {
	couple, _, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	results, err := h.albums.ListAlbums(c.Request.Context(), couple.CoupleID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"albums": results})
}

func (h *httpHandler) handleAddPhoto(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	var request addPhotoRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	photo, err := h.albums.AddPhoto(c.Request.Context(), couple.CoupleID, c.Param("albumID"), userID,
		request.ImageURL, request.Caption, request.TakenAtSeconds)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, photo)
}

func (h *httpHandler) handleListPhotos(c *gin.Context) {
	couple, _, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	results, err := h.albums.ListPhotos(c.Request.Context(), couple.CoupleID, c.Param("albumID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photos": results})
}

func (h *httpHandler) handleDeletePhoto(c *gin.Context) {
	couple, _, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	if err := h.albums.DeletePhoto(c.Request.Context(), couple.CoupleID, c.Param("photoID")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type createMilestoneRequestPayload struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	AchievedAtSeconds int64  `json:"achieved_at_s"`
}

func (h *httpHandler) handleCreateMilestone(c *gin.Context) {
	couple, userID, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	var request createMilestoneRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	milestone, err := h.milestones.Create(c.Request.Context(), couple.CoupleID, userID,
		request.Title, request.Description, request.Category, request.AchievedAtSeconds)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, milestone)
}

func (h *httpHandler) handleListMilestones(c *gin.Context) {
	couple, _, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	results, err := h.milestones.List(c.Request.Context(), couple.CoupleID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestones": results})
}

func (h *httpHandler) handleDeleteMilestone(c *gin.Context) {
	couple, _, ok := h.requireCoupleMember(c)
	if !ok {
		return
	}
	if err := h.milestones.Delete(c.Request.Context(), couple.CoupleID, c.Param("milestoneID")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

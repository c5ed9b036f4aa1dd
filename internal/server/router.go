package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/albums"
	"github.com/entwine-labs/entwine/backend/internal/couples"
	"github.com/entwine-labs/entwine/backend/internal/cycle"
	"github.com/entwine-labs/entwine/backend/internal/games"
	"github.com/entwine-labs/entwine/backend/internal/letters"
	"github.com/entwine-labs/entwine/backend/internal/milestones"
	"github.com/entwine-labs/entwine/backend/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const userIDContextKey = "entwine_user_id"

var (
	errMissingTokenManager   = errors.New("token manager dependency required")
	errMissingUsersService   = errors.New("users service dependency required")
	errMissingCouplesService = errors.New("couples service dependency required")
	errMissingGamesService   = errors.New("games service dependency required")
	errInvalidAuthorization  = errors.New("authorization header missing or invalid")
)

// BackendTokenManager issues and validates backend session tokens.
type BackendTokenManager interface {
	IssueToken(ctx context.Context, userID string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// Dependencies wires the HTTP layer to the application services.
type Dependencies struct {
	TokenManager BackendTokenManager
	Users        *users.Service
	Couples      *couples.Service
	Games        *games.Service
	Cycle        *cycle.Service
	Letters      *letters.Service
	Albums       *albums.Service
	Milestones   *milestones.Service
	Realtime     *RealtimeDispatcher
	Logger       *zap.Logger
}

// NewHTTPHandler constructs the full API router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Users == nil {
		return nil, errMissingUsersService
	}
	if deps.Couples == nil {
		return nil, errMissingCouplesService
	}
	if deps.Games == nil {
		return nil, errMissingGamesService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Realtime
	if dispatcher == nil {
		dispatcher = NewRealtimeDispatcher()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:     deps.TokenManager,
		users:      deps.Users,
		couples:    deps.Couples,
		games:      deps.Games,
		cycle:      deps.Cycle,
		letters:    deps.Letters,
		albums:     deps.Albums,
		milestones: deps.Milestones,
		realtime:   dispatcher,
		logger:     logger,
	}

	router.POST("/auth/register", handler.handleRegister)
	router.POST("/auth/login", handler.handleLogin)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/me", handler.handleMe)

	protected.POST("/couples", handler.handleCreateCouple)
	protected.POST("/couples/join", handler.handleJoinCouple)
	protected.GET("/couples/:coupleID/members", handler.handleMembers)
	protected.GET("/couples/:coupleID/summary", handler.handleCoupleSummary)

	protected.GET("/couples/:coupleID/games/:gameType", handler.handleReadSession)
	protected.POST("/couples/:coupleID/games/truth-or-dare/start", handler.handleTruthOrDareStart)
	protected.POST("/couples/:coupleID/games/truth-or-dare/category", handler.handleTruthOrDareCategory)
	protected.POST("/couples/:coupleID/games/truth-or-dare/choice", handler.handleTruthOrDareChoice)
	protected.POST("/couples/:coupleID/games/truth-or-dare/next", handler.handleTruthOrDareNext)
	protected.POST("/couples/:coupleID/games/truth-or-dare/repair", handler.handleTruthOrDareRepair)
	protected.POST("/couples/:coupleID/games/love-quiz/start", handler.handleLoveQuizStart)
	protected.POST("/couples/:coupleID/games/love-quiz/answer", handler.handleLoveQuizAnswer)
	protected.POST("/couples/:coupleID/games/love-quiz/reveal", handler.handleLoveQuizReveal)

	protected.POST("/couples/:coupleID/letters", handler.handleCreateLetter)
	protected.GET("/couples/:coupleID/letters", handler.handleListLetters)
	protected.GET("/couples/:coupleID/letters/:letterID", handler.handleGetLetter)
	protected.DELETE("/couples/:coupleID/letters/:letterID", handler.handleDeleteLetter)

	protected.POST("/couples/:coupleID/albums", handler.handleCreateAlbum)
	protected.GET("/couples/:coupleID/albums", handler.handleListAlbums)
	protected.POST("/couples/:coupleID/albums/:albumID/photos", handler.handleAddPhoto)
	protected.GET("/couples/:coupleID/albums/:albumID/photos", handler.handleListPhotos)
	protected.DELETE("/couples/:coupleID/photos/:photoID", handler.handleDeletePhoto)

	protected.POST("/couples/:coupleID/milestones", handler.handleCreateMilestone)
	protected.GET("/couples/:coupleID/milestones", handler.handleListMilestones)
	protected.DELETE("/couples/:coupleID/milestones/:milestoneID", handler.handleDeleteMilestone)

	protected.PUT("/cycle/profile", handler.handleUpsertCycleProfile)
	protected.GET("/cycle/profile/:userID", handler.handleGetCycleProfile)
	protected.GET("/cycle/summary/:userID", handler.handleCycleSummary)
	protected.PUT("/cycle/logs", handler.handleUpsertDailyLog)
	protected.GET("/cycle/logs/:userID", handler.handleListDailyLogs)

	router.GET("/realtime/stream", handler.handleRealtimeStream)

	return router, nil
}

type httpHandler struct {
	tokens     BackendTokenManager
	users      *users.Service
	couples    *couples.Service
	games      *games.Service
	cycle      *cycle.Service
	letters    *letters.Service
	albums     *albums.Service
	milestones *milestones.Service
	realtime   *RealtimeDispatcher
	logger     *zap.Logger
}

type registerRequestPayload struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type loginRequestPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponsePayload struct {
	AccessToken string         `json:"access_token"`
	ExpiresIn   int64          `json:"expires_in"`
	TokenType   string         `json:"token_type"`
	User        accountPayload `json:"user"`
}

type accountPayload struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	account, err := h.users.Register(c.Request.Context(), request.Email, request.DisplayName, request.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.issueTokenResponse(c, account)
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	account, err := h.users.Authenticate(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.issueTokenResponse(c, account)
}

func (h *httpHandler) issueTokenResponse(c *gin.Context, account users.Account) {
	token, expiresIn, err := h.tokens.IssueToken(c.Request.Context(), account.UserID)
	if err != nil {
		h.logger.Error("failed to issue backend token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}
	c.JSON(http.StatusOK, authResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		User: accountPayload{
			UserID:      account.UserID,
			Email:       account.Email,
			DisplayName: account.DisplayName,
		},
	})
}

func (h *httpHandler) handleMe(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	account, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := gin.H{"user": accountPayload{
		UserID:      account.UserID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
	}}
	if couple, err := h.couples.ForUser(c.Request.Context(), userID); err == nil {
		response["couple"] = gin.H{
			"couple_id":   couple.CoupleID,
			"invite_code": couple.InviteCode,
			"user1_id":    couple.User1ID,
			"user2_id":    couple.User2ID,
		}
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, subject)
	c.Next()
}

// requireCoupleMember resolves the :coupleID path param and verifies the
// caller belongs to it. On failure the response is already written.
func (h *httpHandler) requireCoupleMember(c *gin.Context) (couples.Couple, string, bool) {
	userID := c.GetString(userIDContextKey)
	coupleID := c.Param("coupleID")
	couple, err := h.couples.RequireMember(c.Request.Context(), coupleID, userID)
	if err != nil {
		h.respondError(c, err)
		return couples.Couple{}, "", false
	}
	return couple, userID, true
}

func (h *httpHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, users.ErrInvalidRegistration),
		errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, games.ErrInvalidGameType),
		errors.Is(err, games.ErrInvalidCategory),
		errors.Is(err, games.ErrInvalidMode),
		errors.Is(err, games.ErrEmptyAnswer),
		errors.Is(err, cycle.ErrInvalidProfile),
		errors.Is(err, cycle.ErrInvalidFlow),
		errors.Is(err, letters.ErrInvalidLetter),
		errors.Is(err, albums.ErrInvalidAlbum),
		errors.Is(err, albums.ErrInvalidPhoto),
		errors.Is(err, milestones.ErrInvalidMilestone):
		c.JSON(http.StatusBadRequest, gin.H{"error": reasonFor(err)})
	case errors.Is(err, users.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
	case errors.Is(err, couples.ErrNotMember),
		errors.Is(err, games.ErrNotElected),
		errors.Is(err, cycle.ErrNotShared),
		errors.Is(err, letters.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": reasonFor(err)})
	case errors.Is(err, users.ErrAccountNotFound),
		errors.Is(err, couples.ErrCoupleNotFound),
		errors.Is(err, games.ErrSessionNotFound),
		errors.Is(err, cycle.ErrProfileNotFound),
		errors.Is(err, letters.ErrLetterNotFound),
		errors.Is(err, albums.ErrAlbumNotFound),
		errors.Is(err, albums.ErrPhotoNotFound),
		errors.Is(err, milestones.ErrMilestoneNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": reasonFor(err)})
	case errors.Is(err, games.ErrNotYourTurn),
		errors.Is(err, games.ErrIllegalTransition),
		errors.Is(err, games.ErrVersionConflict),
		errors.Is(err, games.ErrHolderValid),
		errors.Is(err, couples.ErrAlreadyPaired),
		errors.Is(err, couples.ErrCoupleFull),
		errors.Is(err, couples.ErrSelfJoin):
		c.JSON(http.StatusConflict, gin.H{"error": reasonFor(err)})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, games.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, games.ErrIllegalTransition):
		return "illegal_transition"
	case errors.Is(err, games.ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, games.ErrHolderValid):
		return "turn_holder_valid"
	case errors.Is(err, games.ErrNotElected):
		return "not_elected"
	case errors.Is(err, games.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, couples.ErrNotMember):
		return "not_a_member"
	case errors.Is(err, couples.ErrCoupleNotFound):
		return "couple_not_found"
	case errors.Is(err, couples.ErrAlreadyPaired):
		return "already_paired"
	case errors.Is(err, couples.ErrCoupleFull):
		return "couple_full"
	case errors.Is(err, couples.ErrSelfJoin):
		return "cannot_join_own_couple"
	case errors.Is(err, cycle.ErrNotShared):
		return "profile_not_shared"
	case errors.Is(err, letters.ErrNotAuthor):
		return "not_author"
	default:
		return "invalid_request"
	}
}

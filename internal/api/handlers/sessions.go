package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/coco-ide/completion-service/internal/api/dto"
	"github.com/coco-ide/completion-service/internal/api/middleware"
	"github.com/coco-ide/completion-service/internal/core/store"
	"github.com/coco-ide/completion-service/internal/domain/models"
	"github.com/coco-ide/completion-service/internal/pkg/encryption"
	"github.com/coco-ide/completion-service/internal/services/blacklist"
	"github.com/coco-ide/completion-service/internal/services/persistence"
	"github.com/coco-ide/completion-service/internal/services/session"
)

// SessionsHandler handles session lifecycle endpoints.
type SessionsHandler struct {
	manager   *session.Manager
	users     store.UsersCollection
	requests  store.RequestsCollection
	blacklist *blacklist.Blacklist
	encryptor encryption.Encryptor
	logger    zerolog.Logger
}

// NewSessionsHandler creates a new SessionsHandler.
func NewSessionsHandler(manager *session.Manager, storeClient store.Client, bl *blacklist.Blacklist, encryptor encryption.Encryptor, logger zerolog.Logger) *SessionsHandler {
	return &SessionsHandler{
		manager:   manager,
		users:     storeClient.Users(),
		requests:  storeClient.Requests(),
		blacklist: bl,
		encryptor: encryptor,
		logger:    logger,
	}
}

// New handles the /session/new endpoint. The user token is resolved against
// the user store; an existing live session for the same user is reused
// instead of opening a second one. Failed attempts count toward the source
// IP's blacklist threshold.
// @Summary Open a session
// @Description Authorizes the plugin token and returns a session id, reusing the user's live session if one exists
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body dto.SessionRequest true "Session request"
// @Success 200 {object} dto.SessionResponse "Session opened or reused"
// @Failure 400 {object} dto.ErrorResponse "Malformed request or settings"
// @Failure 401 {object} dto.ErrorResponse "Unknown user token"
// @Router /session/new [post]
func (h *SessionsHandler) New(c *gin.Context) {
	ip := c.ClientIP()

	var req dto.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.registerFailure(c, ip)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.users.GetByToken(c.Request.Context(), req.UserToken)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if user == nil {
		h.registerFailure(c, ip)
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unknown user token"})
		return
	}

	if sessionID, ok := h.manager.GetSessionIDByUserToken(user.ID); ok {
		c.JSON(http.StatusOK, dto.SessionResponse{SessionID: sessionID})
		return
	}

	settings, err := models.NormalizeSettings(req.UserSettings)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	recorder := persistence.NewStoreRecorder(h.requests, h.encryptor, h.logger)
	s := session.New(user.ID, req.ProjectLanguage, req.ProjectIDE, req.Version, settings, recorder)
	sessionID := h.manager.AddSession(s)

	c.JSON(http.StatusOK, dto.SessionResponse{SessionID: sessionID})
}

// End handles the /session/end endpoint. Ending a session flushes its
// accumulated requests to the store and releases it.
// @Summary End a session
// @Description Flushes the session's accumulated requests and removes it
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body dto.SessionEndRequest true "Session end request"
// @Success 200 {object} map[string]bool "Session ended"
// @Failure 400 {object} dto.ErrorResponse "Malformed request"
// @Failure 404 {object} dto.ErrorResponse "Unknown session id"
// @Router /session/end [post]
func (h *SessionsHandler) End(c *gin.Context) {
	var req dto.SessionEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}

	if h.manager.GetSession(req.SessionID) == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "session not found"})
		return
	}

	if err := h.manager.RemoveSession(c.Request.Context(), req.SessionID); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *SessionsHandler) registerFailure(c *gin.Context, ip string) {
	if _, err := h.blacklist.RegisterFailure(c.Request.Context(), ip); err != nil {
		h.logger.Error().Err(err).Str("ip", ip).Msg("failed to record session failure")
	}
}

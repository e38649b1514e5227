package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/coco-ide/completion-service/internal/api/dto"
	"github.com/coco-ide/completion-service/internal/api/middleware"
	"github.com/coco-ide/completion-service/internal/domain/errors"
	"github.com/coco-ide/completion-service/internal/domain/models"
	"github.com/coco-ide/completion-service/internal/services/completion"
	"github.com/coco-ide/completion-service/internal/services/ratelimit"
	"github.com/coco-ide/completion-service/internal/services/session"
)

// CompletionsHandler handles completion and verification endpoints.
type CompletionsHandler struct {
	manager *session.Manager
	engine  completion.Engine
	limiter *ratelimit.Limiter
	logger  zerolog.Logger
}

// NewCompletionsHandler creates a new CompletionsHandler.
func NewCompletionsHandler(manager *session.Manager, engine completion.Engine, limiter *ratelimit.Limiter, logger zerolog.Logger) *CompletionsHandler {
	return &CompletionsHandler{
		manager: manager,
		engine:  engine,
		limiter: limiter,
		logger:  logger,
	}
}

// Complete handles the /complete endpoint. The generated completions are
// recorded on the session's ledger under the request id so a later verify
// call can reconcile them, and the session's expiration timer is refreshed.
// @Summary Generate completions
// @Description Queries every configured model backend and returns their completions
// @Tags Completions
// @Accept json
// @Produce json
// @Param request body dto.CompletionRequest true "Completion request"
// @Success 200 {object} dto.CompletionResponse "Generated completions"
// @Failure 400 {object} dto.ErrorResponse "Malformed request"
// @Failure 404 {object} dto.ErrorResponse "Unknown session id"
// @Failure 409 {object} dto.ErrorResponse "Duplicate request id"
// @Failure 429 {object} dto.ErrorResponse "Request rate exceeded"
// @Router /complete [post]
func (h *CompletionsHandler) Complete(c *gin.Context) {
	var req dto.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}

	s := h.manager.GetSession(req.SessionID)
	if s == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "session not found"})
		return
	}

	if err := h.limiter.Allow(s.UserID(), s.RequestCount(), s.Since()); err != nil {
		middleware.HandleError(c, err)
		return
	}

	genReq := &models.GenerateRequest{
		UserID:    s.UserID(),
		RequestID: req.RequestID,
		Prefix:    req.Prefix,
		Suffix:    req.Suffix,
		Trigger:   req.Trigger,
		Language:  req.Language,
		IDE:       req.IDE,
		Version:   req.Version,
		Store:     req.Store,
		Timestamp: time.Now(),
	}

	completions, elapsed, err := h.engine.Generate(c.Request.Context(), genReq)
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("completion generation failed", err))
		return
	}

	if err := s.AddActiveRequest(req.RequestID, genReq, completions, elapsed); err != nil {
		middleware.HandleError(c, err)
		return
	}

	// A session that is actively completing should not expire under the
	// user. A lost race with the sweeper only skips the refresh.
	if err := h.manager.Touch(req.SessionID); err != nil {
		h.logger.Debug().Str("session_id", req.SessionID).Msg("session gone before timer refresh")
	}

	c.JSON(http.StatusOK, dto.CompletionResponse{
		Completions: completions,
		Time:        elapsed,
	})
}

// Verify handles the /verify endpoint. Verification never hard-fails: any
// problem applying the mutations is reported as success=false with HTTP 200,
// since the plugin cannot act on verification errors anyway.
// @Summary Verify a completion
// @Description Records which completions were shown, accepted, and superseded by ground truth
// @Tags Completions
// @Accept json
// @Produce json
// @Param request body dto.VerifyRequest true "Verify request"
// @Success 200 {object} dto.VerifyResponse "Verification outcome"
// @Router /verify [post]
func (h *CompletionsHandler) Verify(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, dto.VerifyResponse{Success: false})
		return
	}

	s := h.manager.GetSession(req.SessionID)
	if s == nil {
		c.JSON(http.StatusOK, dto.VerifyResponse{Success: false})
		return
	}

	verification := &models.Verification{
		ChosenModel: req.ChosenModel,
		ShownAt:     req.ShownAt,
		GroundTruth: make([]models.GroundTruthEntry, 0, len(req.GroundTruth)),
	}
	for _, entry := range req.GroundTruth {
		verification.GroundTruth = append(verification.GroundTruth, models.GroundTruthEntry{
			Timestamp: entry.Timestamp,
			Text:      entry.Text,
		})
	}

	success := s.UpdateActiveRequest(req.VerifyToken, verification)
	if !success {
		h.logger.Warn().
			Str("session_id", req.SessionID).
			Str("verify_token", req.VerifyToken).
			Msg("verification not applied")
	}

	if err := h.manager.Touch(req.SessionID); err != nil {
		h.logger.Debug().Str("session_id", req.SessionID).Msg("session gone before timer refresh")
	}

	c.JSON(http.StatusOK, dto.VerifyResponse{Success: success})
}

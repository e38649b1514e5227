package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coco-ide/completion-service/internal/api/dto"
)

// userIDPlaceholder is the token in the survey link template replaced with
// the requesting user's id.
const userIDPlaceholder = "{user_id}"

// SurveyHandler handles the feedback survey endpoint.
type SurveyHandler struct {
	surveyLink string
}

// NewSurveyHandler creates a new SurveyHandler.
func NewSurveyHandler(surveyLink string) *SurveyHandler {
	return &SurveyHandler{surveyLink: surveyLink}
}

// Survey handles the /survey endpoint.
// @Summary Get a survey link
// @Description Returns the feedback survey link personalized for the user
// @Tags Survey
// @Accept json
// @Produce json
// @Param request body dto.SurveyRequest true "Survey request"
// @Success 200 {object} dto.SurveyResponse "Survey link"
// @Failure 400 {object} dto.ErrorResponse "Malformed request"
// @Failure 404 {object} dto.ErrorResponse "No survey configured"
// @Router /survey [post]
func (h *SurveyHandler) Survey(c *gin.Context) {
	var req dto.SurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}

	if h.surveyLink == "" {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "no survey configured"})
		return
	}

	c.JSON(http.StatusOK, dto.SurveyResponse{
		RedirectURL: strings.ReplaceAll(h.surveyLink, userIDPlaceholder, req.UserID),
	})
}

package wizard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

type EventRequest struct {
	Type    string          `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload"`
}

type SessionResponse struct {
	SessionID uuid.UUID `json:"sessionId"`
	State     State     `json:"state"`
}

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// handleWizardError maps service errors to HTTP responses.
func (h *Handler) handleWizardError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Planning session not found",
			"details": "The session does not exist or has expired, start a new one",
		})
	case errors.Is(err, models.ErrUnknownEvent):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Unknown event type",
			"details": err.Error(),
		})
	case errors.Is(err, models.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
	default:
		h.logger.Error("Wizard operation failed", zap.String("operation", operation), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": "Something went wrong, please try again",
		})
	}
}

func (h *Handler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}

// StartSession godoc
// @Summary Start a planning conversation
// @Tags wizard
// @Produce json
// @Success 201 {object} SessionResponse
// @Router /api/wizard/sessions [post]
func (h *Handler) StartSession(c *gin.Context) {
	id, state, err := h.service.StartSession(c.Request.Context())
	if err != nil {
		h.handleWizardError(c, err, "start")
		return
	}
	c.JSON(http.StatusCreated, SessionResponse{SessionID: id, State: state})
}

// GetSession godoc
// @Summary Current wizard state
// @Tags wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} State
// @Failure 404 {object} map[string]string
// @Router /api/wizard/sessions/{id} [get]
func (h *Handler) GetSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	state, err := h.service.State(c.Request.Context(), id)
	if err != nil {
		h.handleWizardError(c, err, "get")
		return
	}
	c.JSON(http.StatusOK, state)
}

// DispatchEvent godoc
// @Summary Send a UI event to the wizard
// @Description Refused events answer 200 with accepted=false and the unchanged state
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param event body EventRequest true "Event type and payload"
// @Success 200 {object} Result
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/wizard/sessions/{id}/events [post]
func (h *Handler) DispatchEvent(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	ev, err := DecodeEvent(req.Type, req.Payload)
	if err != nil {
		h.handleWizardError(c, err, "decode")
		return
	}

	res, err := h.service.Dispatch(c.Request.Context(), id, ev)
	if err != nil {
		h.handleWizardError(c, err, "dispatch")
		return
	}
	c.JSON(http.StatusOK, res)
}

// CompleteStep godoc
// @Summary Deliver the fact of a step
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param step path string true "Wizard step"
// @Param fact body models.TripFact true "Partial itinerary"
// @Success 200 {object} Result
// @Router /api/wizard/sessions/{id}/steps/{step} [post]
func (h *Handler) CompleteStep(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	step, err := models.ParseWizardStep(c.Param("step"))
	if err != nil {
		h.handleWizardError(c, err, "complete step")
		return
	}
	var fact models.TripFact
	if err := c.ShouldBindJSON(&fact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	res, err := h.service.OnStepComplete(c.Request.Context(), id, step, fact)
	if err != nil {
		h.handleWizardError(c, err, "complete step")
		return
	}
	c.JSON(http.StatusOK, res)
}

// ConfirmTrip godoc
// @Summary Confirm the reviewed trip and book it
// @Tags wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} Result
// @Router /api/wizard/sessions/{id}/confirm [post]
func (h *Handler) ConfirmTrip(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	res, err := h.service.OnTripConfirm(c.Request.Context(), id)
	if err != nil {
		h.handleWizardError(c, err, "confirm")
		return
	}
	c.JSON(http.StatusOK, res)
}

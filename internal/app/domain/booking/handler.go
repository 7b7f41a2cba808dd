package booking

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

type Handler struct {
	booker Booker
	logger *zap.Logger
}

func NewHandler(booker Booker, logger *zap.Logger) *Handler {
	return &Handler{booker: booker, logger: logger}
}

// GetBooking godoc
// @Summary Look up a booking confirmation
// @Tags bookings
// @Produce json
// @Param reference path string true "Booking reference"
// @Success 200 {object} models.BookingConfirmation
// @Failure 404 {object} map[string]string
// @Router /api/bookings/{reference} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	reference, err := uuid.Parse(c.Param("reference"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking reference"})
		return
	}

	conf, err := h.booker.Get(c.Request.Context(), reference)
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	case err != nil:
		h.logger.Error("Failed to get booking", zap.String("reference", reference.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": "Something went wrong, please try again",
		})
		return
	}
	c.JSON(http.StatusOK, conf)
}

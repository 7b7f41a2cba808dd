package flightquery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
	"github.com/FACorreiaa/voyagr-planner/internal/app/observability/metrics"
)

// Searcher is the flight-search backend the chat endpoint dispatches to.
type Searcher interface {
	Search(ctx context.Context, params models.FlightSearchParams) ([]models.FlightOption, error)
}

type QueryRequest struct {
	Text    string `json:"text" binding:"required"`
	Context string `json:"context"`
}

type QueryResponse struct {
	IsFlightQuery bool                       `json:"isFlightQuery"`
	Params        *models.FlightSearchParams `json:"params,omitempty"`
}

type SearchResponse struct {
	IsFlightQuery bool                       `json:"isFlightQuery"`
	Params        *models.FlightSearchParams `json:"params,omitempty"`
	Options       []models.FlightOption      `json:"options"`
}

type Handler struct {
	extractor *Extractor
	searcher  Searcher
	logger    *zap.Logger
}

func NewHandler(extractor *Extractor, searcher Searcher, logger *zap.Logger) *Handler {
	return &Handler{extractor: extractor, searcher: searcher, logger: logger}
}

// classify runs the detector and, for flight queries, the extractor.
func (h *Handler) classify(ctx context.Context, req QueryRequest) (bool, *models.FlightSearchParams) {
	isFlight := DetectFlightQuery(req.Text)
	metrics.Count(ctx, metrics.Get().FlightQueriesTotal, attribute.Bool("is_flight", isFlight))
	if !isFlight {
		return false, nil
	}
	params := h.extractor.Extract(req.Text, req.Context)
	h.logger.Debug("Extracted flight parameters",
		zap.String("origin", params.Origin),
		zap.String("destination", params.Destination),
		zap.String("departure", params.DepartureDate),
		zap.Any("sources", params.Sources))
	return true, &params
}

// Query godoc
// @Summary Classify an utterance and extract flight parameters
// @Tags flights
// @Accept json
// @Produce json
// @Param request body QueryRequest true "Utterance and optional context"
// @Success 200 {object} QueryResponse
// @Failure 400 {object} map[string]string
// @Router /api/flights/query [post]
func (h *Handler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	isFlight, params := h.classify(c.Request.Context(), req)
	c.JSON(http.StatusOK, QueryResponse{IsFlightQuery: isFlight, Params: params})
}

// Search godoc
// @Summary Answer a chat utterance with flight options
// @Description Non-flight utterances return isFlightQuery=false without searching
// @Tags flights
// @Accept json
// @Produce json
// @Param request body QueryRequest true "Utterance and optional context"
// @Success 200 {object} SearchResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/flights/search [post]
func (h *Handler) Search(c *gin.Context) {
	ctx, span := otel.Tracer("FlightQueryHandler").Start(c.Request.Context(), "Search")
	defer span.End()

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	isFlight, params := h.classify(ctx, req)
	if !isFlight {
		c.JSON(http.StatusOK, SearchResponse{IsFlightQuery: false, Options: []models.FlightOption{}})
		return
	}
	span.SetAttributes(
		attribute.String("flight.origin", params.Origin),
		attribute.String("flight.destination", params.Destination),
	)

	options, err := h.searcher.Search(ctx, *params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "flight search failed")
		h.logger.Error("Flight search failed", zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, models.ErrProviderUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"error":   "Flight search failed",
			"details": "We could not reach the flight provider, please try again",
			"params":  params,
		})
		return
	}
	if options == nil {
		options = []models.FlightOption{}
	}
	c.JSON(http.StatusOK, SearchResponse{IsFlightQuery: true, Params: params, Options: options})
}

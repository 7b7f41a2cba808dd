package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
	"github.com/FACorreiaa/voyagr-planner/internal/app/observability/metrics"
	"github.com/FACorreiaa/voyagr-planner/internal/pkg/cache"
	"github.com/FACorreiaa/voyagr-planner/internal/pkg/httpclient"
)

const DefaultBaseURL = "https://api.openrouteservice.org"

// ReverseGeocoder resolves coordinates to the city they fall in.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*models.Place, error)
}

var _ ReverseGeocoder = (*ORSClient)(nil)

type Config struct {
	BaseURL string
	APIKey  string
	HTTP    httpclient.Config
}

// ORSClient reverse geocodes through the OpenRouteService Pelias API.
type ORSClient struct {
	cfg    Config
	http   *httpclient.Client
	cache  *cache.UnifiedCache[models.Place]
	logger *zap.Logger
	title  cases.Caser
}

func NewORSClient(cfg Config, places *cache.UnifiedCache[models.Place], logger *zap.Logger) *ORSClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ORSClient{
		cfg:    cfg,
		http:   httpclient.New(cfg.HTTP, logger),
		cache:  places,
		logger: logger,
		title:  cases.Title(language.English),
	}
}

func (c *ORSClient) Configured() bool { return c.cfg.APIKey != "" }

type reverseResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Name       string `json:"name"`
			Locality   string `json:"locality"`
			LocalAdmin string `json:"localadmin"`
			County     string `json:"county"`
			Region     string `json:"region"`
			Country    string `json:"country"`
		} `json:"properties"`
	} `json:"features"`
}

func (c *ORSClient) ReverseGeocode(ctx context.Context, lat, lng float64) (*models.Place, error) {
	ctx, span := otel.Tracer("GeocodingClient").Start(ctx, "ReverseGeocode", trace.WithAttributes(
		attribute.Float64("geo.lat", lat),
		attribute.Float64("geo.lng", lng),
	))
	defer span.End()

	l := c.logger.With(zap.String("method", "ReverseGeocode"))

	if !models.ValidateCoordinates(lat, lng) {
		return nil, fmt.Errorf("coordinates %f,%f: %w", lat, lng, models.ErrValidation)
	}
	if !c.Configured() {
		return nil, fmt.Errorf("openrouteservice api key missing: %w", models.ErrProviderUnavailable)
	}

	key := coordinateKey(lat, lng)
	if c.cache != nil {
		if place, ok := c.cache.Get(key); ok {
			metrics.Count(ctx, metrics.Get().GeocodeRequestsTotal, attribute.String("outcome", "cached"))
			return withCoordinates(place, lat, lng), nil
		}
	}

	var resp reverseResponse
	err := c.http.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/geocode/reverse", nil)
		if err != nil {
			return nil, err
		}
		q := url.Values{}
		q.Set("point.lat", strconv.FormatFloat(lat, 'f', 6, 64))
		q.Set("point.lon", strconv.FormatFloat(lng, 'f', 6, 64))
		q.Set("layers", "locality,localadmin,county")
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		req.Header.Set("Authorization", c.cfg.APIKey)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}, &resp)
	if err != nil {
		metrics.Count(ctx, metrics.Get().GeocodeRequestsTotal, attribute.String("outcome", "error"))
		span.RecordError(err)
		span.SetStatus(codes.Error, "reverse geocode failed")
		l.Warn("Reverse geocode request failed", zap.Error(err))
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}

	if len(resp.Features) == 0 {
		metrics.Count(ctx, metrics.Get().GeocodeRequestsTotal, attribute.String("outcome", "empty"))
		return nil, fmt.Errorf("no locality at %f,%f: %w", lat, lng, models.ErrNotFound)
	}

	props := resp.Features[0].Properties
	city := firstNonEmpty(props.Locality, props.LocalAdmin, props.Name, props.County)
	if city == "" {
		metrics.Count(ctx, metrics.Get().GeocodeRequestsTotal, attribute.String("outcome", "empty"))
		return nil, fmt.Errorf("no locality at %f,%f: %w", lat, lng, models.ErrNotFound)
	}

	place := models.Place{
		City:    c.title.String(strings.ToLower(city)),
		Country: props.Country,
	}
	if c.cache != nil {
		c.cache.Set(key, place)
	}
	metrics.Count(ctx, metrics.Get().GeocodeRequestsTotal, attribute.String("outcome", "resolved"))
	span.SetAttributes(attribute.String("geo.city", place.City))
	l.Debug("Coordinates resolved", zap.String("city", place.City))
	return withCoordinates(place, lat, lng), nil
}

// coordinateKey rounds to roughly one kilometre so nearby fixes share an entry.
func coordinateKey(lat, lng float64) string {
	return fmt.Sprintf("%.2f:%.2f", lat, lng)
}

// withCoordinates keeps the caller's exact fix on the returned place.
func withCoordinates(p models.Place, lat, lng float64) *models.Place {
	p.Lat = &lat
	p.Lng = &lng
	return &p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

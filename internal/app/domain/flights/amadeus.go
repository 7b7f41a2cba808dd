package flights

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
	"github.com/FACorreiaa/voyagr-planner/internal/pkg/cache"
	"github.com/FACorreiaa/voyagr-planner/internal/pkg/httpclient"
)

// Searcher returns flight options for a structured search request.
type Searcher interface {
	Search(ctx context.Context, params models.FlightSearchParams) ([]models.FlightOption, error)
}

var _ Searcher = (*Client)(nil)

const DefaultBaseURL = "https://test.api.amadeus.com"

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// MaxResults caps the offers requested per search.
	MaxResults int
	// SearchTimeout bounds one shared upstream search, independent of the
	// callers waiting on it. Default: 30s.
	SearchTimeout time.Duration
	HTTP          httpclient.Config
}

// Client searches the Amadeus Flight Offers API. Identical concurrent
// searches share one upstream call and results are cached by parameters.
type Client struct {
	cfg    Config
	http   *httpclient.Client
	cache  *cache.UnifiedCache[[]models.FlightOption]
	group  singleflight.Group
	logger *zap.Logger
	now    func() time.Time
	title  cases.Caser

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg Config, results *cache.UnifiedCache[[]models.FlightOption], logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   httpclient.New(cfg.HTTP, logger),
		cache:  results,
		logger: logger,
		now:    time.Now,
		title:  cases.Title(language.English),
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

func (c *Client) Search(ctx context.Context, params models.FlightSearchParams) ([]models.FlightOption, error) {
	ctx, span := otel.Tracer("FlightsClient").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("flight.origin", params.Origin),
		attribute.String("flight.destination", params.Destination),
		attribute.String("flight.departure", params.DepartureDate),
	))
	defer span.End()

	if !c.Configured() {
		return nil, fmt.Errorf("amadeus credentials missing: %w", models.ErrProviderUnavailable)
	}

	key, err := searchKey(params)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if options, ok := c.cache.Get(key); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return options, nil
		}
	}

	// The shared call ignores caller cancellation; each caller stops waiting
	// on its own context and the others keep the result.
	ch := c.group.DoChan(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.SearchTimeout)
		defer cancel()
		options, err := c.search(sctx, params)
		if err == nil && c.cache != nil {
			c.cache.Set(key, options)
		}
		return options, err
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		err := errors.Wrap(ctx.Err(), "amadeus flight offers")
		span.RecordError(err)
		span.SetStatus(codes.Error, "flight search abandoned")
		return nil, err
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "flight search failed")
		return nil, res.Err
	}
	options := res.Val.([]models.FlightOption)

	span.SetAttributes(attribute.Int("flight.options", len(options)), attribute.Bool("singleflight.shared", res.Shared))
	span.SetStatus(codes.Ok, "flight search completed")
	return options, nil
}

func searchKey(p models.FlightSearchParams) (string, error) {
	return cache.NewKeyBuilder().
		Add("origin", p.Origin).
		Add("destination", p.Destination).
		Add("departure", p.DepartureDate).
		Add("return", p.ReturnDate).
		Add("adults", p.Adults).
		Add("cabin", p.CabinClass).
		Add("currency", p.CurrencyCode).
		Build()
}

func (c *Client) search(ctx context.Context, params models.FlightSearchParams) ([]models.FlightOption, error) {
	l := c.logger.With(zap.String("method", "search"),
		zap.String("origin", params.Origin), zap.String("destination", params.Destination))

	var resp offersResponse
	err := c.withToken(ctx, func(token string) error {
		return c.http.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v2/shopping/flight-offers", nil)
			if err != nil {
				return nil, err
			}
			req.URL.RawQuery = offersQuery(params, c.cfg.MaxResults).Encode()
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Accept", "application/json")
			return req, nil
		}, &resp)
	})
	if err != nil {
		l.Warn("Flight offers request failed", zap.Error(err))
		return nil, errors.Wrap(err, "amadeus flight offers")
	}

	options := make([]models.FlightOption, 0, len(resp.Data))
	for _, offer := range resp.Data {
		opt, ok := c.toOption(offer, resp.Dictionaries.Carriers, params.CabinClass)
		if ok {
			options = append(options, opt)
		}
	}
	l.Debug("Flight offers received", zap.Int("offers", len(resp.Data)), zap.Int("options", len(options)))
	return options, nil
}

func offersQuery(p models.FlightSearchParams, max int) url.Values {
	q := url.Values{}
	q.Set("originLocationCode", p.Origin)
	q.Set("destinationLocationCode", p.Destination)
	q.Set("departureDate", p.DepartureDate)
	if p.RoundTrip() {
		q.Set("returnDate", p.ReturnDate)
	}
	q.Set("adults", strconv.Itoa(max1(p.Adults)))
	q.Set("travelClass", string(p.CabinClass))
	if p.CurrencyCode != "" {
		q.Set("currencyCode", p.CurrencyCode)
	}
	q.Set("max", strconv.Itoa(max))
	return q
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// withToken runs fn with a valid access token, fetching a new one once if
// the API rejects the cached token.
func (c *Client) withToken(ctx context.Context, fn func(token string) error) error {
	token, err := c.accessToken(ctx, false)
	if err != nil {
		return err
	}
	err = fn(token)
	if httpclient.IsStatus(err, http.StatusUnauthorized) {
		c.logger.Debug("Access token rejected, refreshing")
		if token, err = c.accessToken(ctx, true); err != nil {
			return err
		}
		err = fn(token)
	}
	return err
}

func (c *Client) accessToken(ctx context.Context, refresh bool) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if !refresh && c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	var tr tokenResponse
	err := c.http.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		form := url.Values{}
		form.Set("grant_type", "client_credentials")
		form.Set("client_id", c.cfg.ClientID)
		form.Set("client_secret", c.cfg.ClientSecret)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}, &tr)
	if err != nil {
		return "", errors.Wrap(err, "amadeus token")
	}
	if tr.AccessToken == "" {
		return "", errors.New("amadeus token: empty access token")
	}

	// Renew slightly early so a token never expires mid-request.
	ttl := time.Duration(tr.ExpiresIn)*time.Second - 30*time.Second
	c.token = tr.AccessToken
	c.tokenExpiry = c.now().Add(max(ttl, 0))
	return c.token, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type offersResponse struct {
	Data         []offer `json:"data"`
	Dictionaries struct {
		Carriers map[string]string `json:"carriers"`
	} `json:"dictionaries"`
}

type offer struct {
	ID                     string      `json:"id"`
	Itineraries            []itinerary `json:"itineraries"`
	ValidatingAirlineCodes []string    `json:"validatingAirlineCodes"`
	Price                  struct {
		Currency   string `json:"currency"`
		GrandTotal string `json:"grandTotal"`
	} `json:"price"`
	TravelerPricings []struct {
		FareDetailsBySegment []struct {
			Cabin string `json:"cabin"`
		} `json:"fareDetailsBySegment"`
	} `json:"travelerPricings"`
}

type itinerary struct {
	Duration string    `json:"duration"`
	Segments []segment `json:"segments"`
}

type segment struct {
	Departure struct {
		IATACode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"departure"`
	Arrival struct {
		IATACode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"arrival"`
	CarrierCode string `json:"carrierCode"`
	Number      string `json:"number"`
}

func (c *Client) toOption(o offer, carriers map[string]string, requested models.CabinClass) (models.FlightOption, bool) {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return models.FlightOption{}, false
	}
	price, err := strconv.ParseFloat(o.Price.GrandTotal, 64)
	if err != nil {
		c.logger.Debug("Skipping offer with unparsable price", zap.String("offer", o.ID), zap.String("price", o.Price.GrandTotal))
		return models.FlightOption{}, false
	}

	out := o.Itineraries[0]
	first, last := out.Segments[0], out.Segments[len(out.Segments)-1]
	code := first.CarrierCode
	if len(o.ValidatingAirlineCodes) > 0 {
		code = o.ValidatingAirlineCodes[0]
	}
	airline := code
	if name, ok := carriers[code]; ok {
		airline = c.title.String(strings.ToLower(name))
	}

	cabin := requested
	if len(o.TravelerPricings) > 0 && len(o.TravelerPricings[0].FareDetailsBySegment) > 0 {
		cabin = models.CabinClass(o.TravelerPricings[0].FareDetailsBySegment[0].Cabin)
	}

	opt := models.FlightOption{
		ID:            o.ID,
		Airline:       airline,
		AirlineCode:   code,
		FlightNumber:  first.CarrierCode + first.Number,
		DepartureTime: first.Departure.At,
		ArrivalTime:   last.Arrival.At,
		Duration:      humanDuration(out.Duration),
		Stops:         len(out.Segments) - 1,
		CabinClass:    cabin,
		Price:         price,
		Currency:      o.Price.Currency,
	}
	if len(o.Itineraries) > 1 && len(o.Itineraries[1].Segments) > 0 {
		back := o.Itineraries[1]
		opt.ReturnDepartureTime = back.Segments[0].Departure.At
		opt.ReturnArrivalTime = back.Segments[len(back.Segments)-1].Arrival.At
		opt.ReturnStops = len(back.Segments) - 1
	}
	return opt, true
}

// humanDuration turns an ISO 8601 duration such as PT7H35M into "7h 35m".
func humanDuration(iso string) string {
	s := strings.TrimPrefix(iso, "PT")
	if s == iso || s == "" {
		return iso
	}
	var parts []string
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'H' || r == 'M' || r == 'S':
			if num != "" && r != 'S' {
				parts = append(parts, num+strings.ToLower(string(r)))
			}
			num = ""
		default:
			return iso
		}
	}
	return strings.Join(parts, " ")
}

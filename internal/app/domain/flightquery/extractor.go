package flightquery

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/voyagr-planner/internal/app/domain/airports"
	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

// ExtractorConfig configures the parameter extractor.
type ExtractorConfig struct {
	// Currency is the ISO currency code put on every request. Default: USD.
	Currency string
	// Now supplies "today". Default: time.Now.
	Now func() time.Time
}

// DefaultExtractorConfig returns sensible defaults.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Currency: "USD",
		Now:      time.Now,
	}
}

// Extractor turns a single free-text utterance into flight search
// parameters. It never fails: anything it cannot find falls back to a
// default, and ParamSources tells the caller which values were defaulted.
//
// Extractor is safe for concurrent use.
type Extractor struct {
	table    *airports.Table
	currency string
	now      func() time.Time
	logger   *zap.Logger
}

func NewExtractor(table *airports.Table, cfg ExtractorConfig, logger *zap.Logger) *Extractor {
	if table == nil {
		table = airports.Default()
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		table:    table,
		currency: cfg.Currency,
		now:      cfg.Now,
		logger:   logger,
	}
}

var (
	toKeyword   = regexp.MustCompile(`(?i)\bto\s+`)
	fromKeyword = regexp.MustCompile(`(?i)\bfrom\s+`)

	// A city capture also ends before a "<month> <d1>-<d2>" range so that
	// "to Paris Dec 13-24" yields "Paris" and leaves the range to the date rules.
	monthRangeStop = `\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\p{L}*\s+\d{1,2}\s*-\s*\d{1,2}\b`

	toCity   = regexp.MustCompile(`(?i)^to\s+(\p{L}[\p{L}\s'-]*?)(?:` + monthRangeStop + `|\s+(?:in|for|on|from)\b|\s+\d|\s*[.,;:!?]|\s*$)`)
	fromCity = regexp.MustCompile(`(?i)^from\s+(\p{L}[\p{L}\s'-]*?)(?:` + monthRangeStop + `|\s+(?:to|in|for)\b|\s+\d|\s*[.,;:!?]|\s*$)`)

	travelersInText    = regexp.MustCompile(`(?i)(\d+)\s*(person|people|passenger|adult|traveler)`)
	travelersInContext = regexp.MustCompile(`(?i)travelers?:\s*(\d+)`)
	destinationContext = regexp.MustCompile(`(?i)destination:\s*([^,;\n]+)`)
	datesContext       = regexp.MustCompile(`(?i)dates:\s*`)
)

// Extract resolves text and the optional context string against today's date.
func (e *Extractor) Extract(text, context string) models.FlightSearchParams {
	return e.ExtractAt(text, context, e.now())
}

// ExtractAt is Extract with an explicit "today". Identical inputs always
// produce identical output.
func (e *Extractor) ExtractAt(text, context string, today time.Time) models.FlightSearchParams {
	lower := strings.ToLower(text)
	params := models.FlightSearchParams{
		Origin:       airports.DefaultOrigin,
		Destination:  airports.DefaultExtractorDestination,
		Adults:       1,
		CabinClass:   models.CabinEconomy,
		CurrencyCode: e.currency,
		TripType:     models.TripRoundTrip,
		Sources: models.ParamSources{
			Origin:      models.SourceDefault,
			Destination: models.SourceDefault,
			Dates:       models.SourceDefault,
			Adults:      models.SourceDefault,
			CabinClass:  models.SourceDefault,
			TripType:    models.SourceDefault,
		},
	}

	if code, ok := e.cityAfter(text, toKeyword, toCity); ok {
		params.Destination = code
		params.Sources.Destination = models.SourceText
	}
	if code, ok := e.cityAfter(text, fromKeyword, fromCity); ok {
		params.Origin = code
		params.Sources.Origin = models.SourceText
	}
	if m := destinationContext.FindStringSubmatch(context); m != nil {
		if code, ok := e.table.Lookup(m[1]); ok {
			params.Destination = code
			params.Sources.Destination = models.SourceContext
		}
	}

	if cabin, ok := cabinClass(lower); ok {
		params.CabinClass = cabin
		params.Sources.CabinClass = models.SourceText
	}

	oneWay := strings.Contains(lower, "one-way") || strings.Contains(lower, "oneway")
	if oneWay {
		params.TripType = models.TripOneWay
		params.Sources.TripType = models.SourceText
	}

	window := resolveDates(text, lower, today)
	params.DepartureDate = models.FormatISODate(window.departure)
	if !oneWay {
		params.ReturnDate = models.FormatISODate(window.ret)
	}
	if window.fromText {
		params.Sources.Dates = models.SourceText
	}
	if datesContext.MatchString(context) {
		e.logger.Debug("Dates context marker present but not parsed", zap.String("context", context))
	}

	if n, ok := positiveInt(travelersInText.FindStringSubmatch(text)); ok {
		params.Adults = n
		params.Sources.Adults = models.SourceText
	} else if n, ok := positiveInt(travelersInContext.FindStringSubmatch(context)); ok {
		params.Adults = n
		params.Sources.Adults = models.SourceContext
	}

	return params
}

// cityAfter tries every occurrence of keyword in text and returns the code
// of the first captured city the table knows. A capture the table misses
// does not end the search: in "I want to go to Paris" the first capture,
// "go to Paris", misses and the second one finds Paris.
func (e *Extractor) cityAfter(text string, keyword, capture *regexp.Regexp) (string, bool) {
	for _, loc := range keyword.FindAllStringIndex(text, -1) {
		m := capture.FindStringSubmatch(text[loc[0]:])
		if m == nil {
			continue
		}
		if code, ok := e.table.Lookup(strings.ToLower(m[1])); ok {
			return code, true
		}
	}
	return "", false
}

// cabinClass applies the fixed priority business > first > premium.
func cabinClass(lower string) (models.CabinClass, bool) {
	switch {
	case strings.Contains(lower, "business"):
		return models.CabinBusiness, true
	case strings.Contains(lower, "first"):
		return models.CabinFirst, true
	case strings.Contains(lower, "premium"):
		return models.CabinPremiumEconomy, true
	case strings.Contains(lower, "economy"):
		return models.CabinEconomy, true
	}
	return models.CabinEconomy, false
}

func positiveInt(m []string) (int, bool) {
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

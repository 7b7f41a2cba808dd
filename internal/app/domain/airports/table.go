package airports

import (
	"maps"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultOrigin is used whenever an origin city cannot be resolved.
	DefaultOrigin = "JFK"
	// DefaultExtractorDestination is the free-text extractor's destination fallback.
	DefaultExtractorDestination = "LHR"
	// DefaultWizardDestination is the wizard auto-search's destination fallback.
	DefaultWizardDestination = "CDG"

	DefaultVersion = "2025.1"
)

// Table maps lower-cased city names to IATA airport codes. A Table is
// immutable once built and safe for concurrent use.
type Table struct {
	version string
	codes   map[string]string
}

// New builds a table from city -> code entries. City keys are normalised
// and codes upper-cased.
func New(version string, entries map[string]string) *Table {
	codes := make(map[string]string, len(entries))
	for city, code := range entries {
		key := Normalize(city)
		if key == "" || code == "" {
			continue
		}
		codes[key] = strings.ToUpper(strings.TrimSpace(code))
	}
	return &Table{version: version, codes: codes}
}

// Default returns the built-in table of major hubs.
func Default() *Table {
	return New(DefaultVersion, defaultEntries)
}

func (t *Table) Version() string {
	return t.version
}

func (t *Table) Len() int {
	return len(t.codes)
}

// Lookup resolves a city name to its IATA code.
func (t *Table) Lookup(city string) (string, bool) {
	if t == nil {
		return "", false
	}
	code, ok := t.codes[Normalize(city)]
	return code, ok
}

// Resolve is Lookup with a fallback code for unknown cities.
func (t *Table) Resolve(city, fallback string) string {
	if code, ok := t.Lookup(city); ok {
		return code
	}
	return fallback
}

// Entries returns a copy of the table contents.
func (t *Table) Entries() map[string]string {
	return maps.Clone(t.codes)
}

// Normalize lower-cases a city name, strips diacritics, trims it and
// collapses inner whitespace, so "São Paulo" and "sao  paulo" share a key.
func Normalize(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(foldAccents(city))), " ")
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

var defaultEntries = map[string]string{
	// North America
	"new york":      "JFK",
	"nyc":           "JFK",
	"los angeles":   "LAX",
	"chicago":       "ORD",
	"san francisco": "SFO",
	"miami":         "MIA",
	"boston":        "BOS",
	"seattle":       "SEA",
	"washington":    "IAD",
	"las vegas":     "LAS",
	"atlanta":       "ATL",
	"dallas":        "DFW",
	"houston":       "IAH",
	"denver":        "DEN",
	"orlando":       "MCO",
	"toronto":       "YYZ",
	"vancouver":     "YVR",
	"montreal":      "YUL",
	"mexico city":   "MEX",
	"cancun":        "CUN",
	"honolulu":      "HNL",
	// Europe
	"london":     "LHR",
	"paris":      "CDG",
	"rome":       "FCO",
	"milan":      "MXP",
	"madrid":     "MAD",
	"barcelona":  "BCN",
	"lisbon":     "LIS",
	"porto":      "OPO",
	"amsterdam":  "AMS",
	"berlin":     "BER",
	"frankfurt":  "FRA",
	"munich":     "MUC",
	"zurich":     "ZRH",
	"vienna":     "VIE",
	"prague":     "PRG",
	"dublin":     "DUB",
	"copenhagen": "CPH",
	"stockholm":  "ARN",
	"athens":     "ATH",
	"istanbul":   "IST",
	// Middle East & Africa
	"dubai":     "DXB",
	"doha":      "DOH",
	"cairo":     "CAI",
	"cape town": "CPT",
	"marrakech": "RAK",
	// Asia Pacific
	"tokyo":     "NRT",
	"osaka":     "KIX",
	"seoul":     "ICN",
	"beijing":   "PEK",
	"shanghai":  "PVG",
	"hong kong": "HKG",
	"singapore": "SIN",
	"bangkok":   "BKK",
	"bali":      "DPS",
	"delhi":     "DEL",
	"mumbai":    "BOM",
	"sydney":    "SYD",
	"melbourne": "MEL",
	"auckland":  "AKL",
	// South America
	"sao paulo":      "GRU",
	"rio de janeiro": "GIG",
	"buenos aires":   "EZE",
	"lima":           "LIM",
	"bogota":         "BOG",
}

package flightquery

import (
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// flightKeywords is the fixed vocabulary that marks an utterance as a
// flight query. Matching is plain substring search: no stemming and no
// negation handling, so "no flights please" is still a flight query.
var flightKeywords = []string{
	"flight",
	"fly",
	"plane",
	"airline",
	"airport",
	"ticket",
	"trip",
	"round-trip",
	"one-way",
	"oneway",
	"economy",
	"premium economy",
	"business class",
	"first class",
	"layover",
	"nonstop",
}

var keywordMatcher = func() ahocorasick.AhoCorasick {
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
		DFA:                  true,
	})
	return builder.Build(flightKeywords)
}()

// DetectFlightQuery reports whether text mentions any flight keyword.
func DetectFlightQuery(text string) bool {
	if text == "" {
		return false
	}
	return len(keywordMatcher.FindAll(strings.ToLower(text))) > 0
}

// Keywords returns a copy of the detection vocabulary.
func Keywords() []string {
	out := make([]string, len(flightKeywords))
	copy(out, flightKeywords)
	return out
}

package flightquery

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dayRange matches "<word> <d1>-<d2>", e.g. "Dec 13-24".
var dayRange = regexp.MustCompile(`(\p{L}+)\s+(\d{1,2})\s*-\s*(\d{1,2})\b`)

// minMonthPrefix keeps words like "a" or "ma" from resolving to a month.
const minMonthPrefix = 3

// defaultStay is the return offset used when only a month is named.
const defaultStay = 14 * 24 * time.Hour

type travelWindow struct {
	departure time.Time
	ret       time.Time
	fromText  bool
}

// resolveDates applies the date rules in order; a later rule that matches
// overwrites what an earlier one produced.
func resolveDates(text, lower string, now time.Time) travelWindow {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	w := travelWindow{
		departure: today,
		ret:       today.AddDate(0, 1, 0),
	}

	if month, ok := firstMonthName(lower); ok {
		dep := time.Date(today.Year(), month, 1, 0, 0, 0, 0, today.Location())
		if dep.Before(today) {
			dep = dep.AddDate(1, 0, 0)
		}
		w = travelWindow{departure: dep, ret: dep.Add(defaultStay), fromText: true}
	}

	for _, m := range dayRange.FindAllStringSubmatch(text, -1) {
		month, ok := monthByPrefix(m[1])
		if !ok {
			continue
		}
		d1, err1 := strconv.Atoi(m[2])
		d2, err2 := strconv.Atoi(m[3])
		if err1 != nil || err2 != nil || !validDay(d1) || !validDay(d2) {
			continue
		}
		dep := time.Date(today.Year(), month, d1, 0, 0, 0, 0, today.Location())
		ret := time.Date(today.Year(), month, d2, 0, 0, 0, 0, today.Location())
		if d2 < d1 {
			// "Dec 28-3" ends in the following month.
			ret = ret.AddDate(0, 1, 0)
		}
		if dep.Before(today) {
			dep = dep.AddDate(1, 0, 0)
			ret = ret.AddDate(1, 0, 0)
		}
		w = travelWindow{departure: dep, ret: ret, fromText: true}
		break
	}

	return w
}

// firstMonthName returns the first month, in calendar order, whose full
// name occurs in lower.
func firstMonthName(lower string) (time.Month, bool) {
	for m := time.January; m <= time.December; m++ {
		if strings.Contains(lower, strings.ToLower(m.String())) {
			return m, true
		}
	}
	return 0, false
}

// monthByPrefix resolves an abbreviation such as "dec" or "sept".
func monthByPrefix(word string) (time.Month, bool) {
	word = strings.ToLower(word)
	if len(word) < minMonthPrefix {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), word) {
			return m, true
		}
	}
	return 0, false
}

func validDay(d int) bool {
	return d >= 1 && d <= 31
}

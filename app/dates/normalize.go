// Package dates turns the publish-date shapes found in real feeds into UTC
// instants.
package dates

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var ErrNotParseable = errors.New("date is not parseable")

// Named zones allowed by RFC 822/2822. Resolved here so the result does not
// depend on the host's local zone database.
var namedZones = map[string]string{
	"UT":  "+0000",
	"UTC": "+0000",
	"GMT": "+0000",
	"Z":   "+0000",
	"EST": "-0500",
	"EDT": "-0400",
	"CST": "-0600",
	"CDT": "-0500",
	"MST": "-0700",
	"MDT": "-0600",
	"PST": "-0800",
	"PDT": "-0700",
}

var rfc2822Layouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 MST",
	"2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04 MST",
}

// Tried in order. Layouts without a zone are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	zoneComment = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	offsetName  = regexp.MustCompile(`([+-]\d{2}:?\d{2})\s+[A-Z]{2,5}$`)
	zoneToken   = regexp.MustCompile(`\b(UTC|UT|GMT|EST|EDT|CST|CDT|MST|MDT|PST|PDT)\b`)
	upperToken  = regexp.MustCompile(`\b[A-Z]{3,5}\b`)
)

// Uppercase tokens that are not zone abbreviations.
var calendarWords = map[string]bool{
	"JAN": true, "FEB": true, "MAR": true, "APR": true, "MAY": true, "JUN": true,
	"JUL": true, "AUG": true, "SEP": true, "SEPT": true, "OCT": true, "NOV": true, "DEC": true,
	"MON": true, "TUE": true, "WED": true, "THU": true, "FRI": true, "SAT": true, "SUN": true,
	"AM": true, "PM": true,
}

// Normalize accepts nil, string, *string, time.Time, *time.Time or a []int
// tuple of at least six fields (year, month, day, hour, minute, second, read
// as UTC) and returns the instant in UTC. Anything else, or a value none of
// the supported formats can read, yields ErrNotParseable.
func Normalize(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, ErrNotParseable
	case time.Time:
		if v.IsZero() {
			return time.Time{}, ErrNotParseable
		}
		return v.UTC(), nil
	case *time.Time:
		if v == nil {
			return time.Time{}, ErrNotParseable
		}
		return Normalize(*v)
	case []int:
		return fromTuple(v)
	case *string:
		if v == nil {
			return time.Time{}, ErrNotParseable
		}
		return ParseString(*v)
	case string:
		return ParseString(v)
	default:
		return time.Time{}, ErrNotParseable
	}
}

// ParseString runs the RFC 2822 layouts, then the ISO-8601 variants, then a
// lenient UTC-only pass.
func ParseString(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, ErrNotParseable
	}

	if t, ok := parseRFC2822(value); ok {
		return t.UTC(), nil
	}

	if t, ok := parseISO(value); ok {
		return t, nil
	}

	// Named zones are swapped for numeric offsets so neither the ISO layouts
	// nor dateparse read them as UTC.
	// A name after a numeric offset ("+0200 CEST") only repeats it.
	resolved := offsetName.ReplaceAllString(zoneComment.ReplaceAllString(value, ""), "$1")
	resolved = zoneToken.ReplaceAllStringFunc(resolved, func(zone string) string {
		return namedZones[zone]
	})
	if resolved != value {
		if t, ok := parseISO(resolved); ok {
			return t, nil
		}
	}

	if hasUnresolvedZone(resolved) {
		return time.Time{}, ErrNotParseable
	}
	if t, err := dateparse.ParseIn(resolved, time.UTC); err == nil && !t.IsZero() {
		return t.UTC(), nil
	}

	return time.Time{}, ErrNotParseable
}

func parseISO(value string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// hasUnresolvedZone reports an uppercase abbreviation such as BST or CEST
// that dateparse would silently read as UTC.
func hasUnresolvedZone(value string) bool {
	for _, token := range upperToken.FindAllString(value, -1) {
		if !calendarWords[token] {
			return true
		}
	}
	return false
}

func parseRFC2822(value string) (time.Time, bool) {
	value = zoneComment.ReplaceAllString(value, "")

	if idx := strings.LastIndexByte(value, ' '); idx > 0 {
		zone := strings.ToUpper(value[idx+1:])
		if offset, ok := namedZones[zone]; ok {
			value = value[:idx+1] + offset
		}
	}

	for _, layout := range rfc2822Layouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fromTuple(fields []int) (time.Time, error) {
	if len(fields) < 6 {
		return time.Time{}, ErrNotParseable
	}

	year, month, day := fields[0], fields[1], fields[2]
	hour, minute, second := fields[3], fields[4], fields[5]

	if year < 1 || month < 1 || month > 12 || day < 1 || day > 31 ||
		hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 61 {
		return time.Time{}, ErrNotParseable
	}
	if second > 59 {
		// Leap seconds occasionally show up in parsed tuples.
		second = 59
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, ErrNotParseable
	}
	return t, nil
}

package dates

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeRFC2822(t *testing.T) {
	cases := map[string]time.Time{
		"Mon, 03 Jul 2023 10:00:00 GMT":          time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC),
		"Mon, 03 Jul 2023 10:00:00 +0800":        time.Date(2023, 7, 3, 2, 0, 0, 0, time.UTC),
		"Mon, 3 Jul 2023 10:00:00 -0500":         time.Date(2023, 7, 3, 15, 0, 0, 0, time.UTC),
		"Mon, 02 Jan 2006 15:04:05 EST":          time.Date(2006, 1, 2, 20, 4, 5, 0, time.UTC),
		"Mon, 02 Jan 2006 15:04:05 PDT":          time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC),
		"02 Jan 2006 15:04:05 UT":                time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC),
		"Mon, 02 Jan 2006 15:04 +0000":           time.Date(2006, 1, 2, 15, 4, 0, 0, time.UTC),
		"Tue, 10 Jun 2025 08:30:00 +0000 (UTC)":  time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC),
		"  Wed, 11 Jun 2025 23:59:59 +0100  ":    time.Date(2025, 6, 11, 22, 59, 59, 0, time.UTC),
	}

	for input, expected := range cases {
		got, err := Normalize(input)
		if err != nil {
			t.Errorf("Expected %q to parse, got error: %v", input, err)
			continue
		}
		if !got.Equal(expected) {
			t.Errorf("Expected %q to be %v, got %v", input, expected, got)
		}
		if got.Location() != time.UTC {
			t.Errorf("Expected UTC location for %q, got %v", input, got.Location())
		}
	}
}

func TestNormalizeISO8601(t *testing.T) {
	cases := map[string]time.Time{
		"2024-01-01T12:00:00Z":          time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		"2024-01-01T12:00:00+08:00":     time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC),
		"2024-01-01T12:00:00.250Z":      time.Date(2024, 1, 1, 12, 0, 0, 250_000_000, time.UTC),
		"2024-01-01T12:00:00-0300":      time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
		"2024-01-01 12:00:00+0200":      time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		"2024-01-01 12:00:00+02:00":     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		"2024-01-01T12:00:00":           time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		"2024-01-01 12:00:00":           time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		"2024-01-01":                    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	for input, expected := range cases {
		got, err := Normalize(input)
		if err != nil {
			t.Errorf("Expected %q to parse, got error: %v", input, err)
			continue
		}
		if !got.Equal(expected) {
			t.Errorf("Expected %q to be %v, got %v", input, expected, got)
		}
	}
}

func TestNormalizeStructured(t *testing.T) {
	expected := time.Date(2024, 2, 29, 6, 7, 8, 0, time.UTC)

	got, err := Normalize([]int{2024, 2, 29, 6, 7, 8, 3, 60, 0})
	if err != nil {
		t.Fatalf("Expected tuple to parse, got: %v", err)
	}
	if !got.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}

	loc := time.FixedZone("UTC+9", 9*3600)
	local := time.Date(2024, 2, 29, 15, 7, 8, 0, loc)
	got, err = Normalize(&local)
	if err != nil {
		t.Fatalf("Expected *time.Time to normalize, got: %v", err)
	}
	if !got.Equal(expected) || got.Location() != time.UTC {
		t.Errorf("Expected %v in UTC, got %v", expected, got)
	}
}

func TestNormalizeNotParseable(t *testing.T) {
	var nilTime *time.Time
	var nilString *string

	inputs := []any{
		nil,
		"",
		"   ",
		"not a date",
		"yesterday-ish",
		"2024-13-45T99:99:99Z",
		[]int{2024, 2, 30, 0, 0, 0},
		[]int{2024, 1, 1},
		nilTime,
		nilString,
		time.Time{},
		42,
	}

	for _, input := range inputs {
		got, err := Normalize(input)
		if !errors.Is(err, ErrNotParseable) {
			t.Errorf("Expected ErrNotParseable for %#v, got %v (err %v)", input, got, err)
		}
	}
}

func TestNormalizeNamedZoneOutsideRFC2822(t *testing.T) {
	cases := map[string]time.Time{
		"2025-06-13 12:00:00 PDT":        time.Date(2025, 6, 13, 19, 0, 0, 0, time.UTC),
		"2025-06-13 12:00:00 CDT":        time.Date(2025, 6, 13, 17, 0, 0, 0, time.UTC),
		"2025-01-13 12:00:00 EST":        time.Date(2025, 1, 13, 17, 0, 0, 0, time.UTC),
		"2025-06-13 12:00:00 UTC":        time.Date(2025, 6, 13, 12, 0, 0, 0, time.UTC),
		"2025-06-13 12:00:00 +0200 CEST": time.Date(2025, 6, 13, 10, 0, 0, 0, time.UTC),
	}

	for input, expected := range cases {
		got, err := Normalize(input)
		if err != nil {
			t.Errorf("Expected %q to parse, got error: %v", input, err)
			continue
		}
		if !got.Equal(expected) {
			t.Errorf("Expected %q to be %v, got %v", input, expected, got)
		}
	}
}

func TestNormalizeUnknownZoneIsNotGuessed(t *testing.T) {
	for _, input := range []string{"2025-06-13 12:00:00 BST", "2025-06-13 12:00:00 CEST"} {
		if got, err := Normalize(input); !errors.Is(err, ErrNotParseable) {
			t.Errorf("Expected ErrNotParseable for %q, got %v (err %v)", input, got, err)
		}
	}
}

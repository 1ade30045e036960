// Package parse converts the free-text field values coming out of the
// spreadsheet and webhook payloads into typed values. Every function here is
// total: malformed input resolves to a safe default, never an error.
package parse

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nmurthy/vivadesk/internal/model"
)

// monthDayTime matches "15 Jan 2026, 3:38 pm" style timestamps written by the
// student app: day, 3-letter month, year, then a 12- or 24-hour clock.
var monthDayTime = regexp.MustCompile(`(?i)^\s*(\d{1,2})\s+([a-z]{3})\s+(\d{4}),?\s+(\d{1,2}):(\d{2})(?::(\d{2}))?\s*(am|pm)?\s*$`)

// slashDate matches M/D/YY and M/D/YYYY, first two groups read as month/day.
var slashDate = regexp.MustCompile(`^\s*(\d{1,2})/(\d{1,2})/(\d{2,4})\s*$`)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// genericLayouts are the last-resort formats tried before giving up.
var genericLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02 Jan 2006",
	"Jan 2, 2006",
	time.ANSIC,
	time.UnixDate,
}

// Timestamp normalizes heterogeneous timestamp text into an instant.
// On total unparseability it returns the current instant, never an error.
func Timestamp(s string) time.Time {
	return timestampOr(s, time.Now)
}

func timestampOr(s string, now func() time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return now()
	}

	// ISO-8601 with an explicit UTC/offset marker.
	if strings.Contains(s, "T") && (strings.HasSuffix(s, "Z") || strings.ContainsAny(s[strings.Index(s, "T"):], "+-")) {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}

	if m := monthDayTime.FindStringSubmatch(s); m != nil {
		if t, ok := buildMonthDayTime(m); ok {
			return t
		}
	}

	if m := slashDate.FindStringSubmatch(s); m != nil {
		if t, ok := buildSlashDate(m); ok {
			return t
		}
	}

	for _, layout := range genericLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}

	return now()
}

func buildMonthDayTime(m []string) (time.Time, bool) {
	day, _ := strconv.Atoi(m[1])
	month, ok := months[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	sec := 0
	if m[6] != "" {
		sec, _ = strconv.Atoi(m[6])
	}

	switch strings.ToLower(m[7]) {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour != 12 {
			hour += 12
		}
	}
	if day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	return time.Date(year, month, day, hour, minute, sec, 0, time.Local), true
}

func buildSlashDate(m []string) (time.Time, bool) {
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
}

var firstDigits = regexp.MustCompile(`\d+`)

// FirstInt extracts the first integer from text like "8 questions" or
// "75/100". Text with no digits yields 0.
func FirstInt(s string) int {
	m := firstDigits.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// Digit run too long for an int; results never carry such values.
		return 0
	}
	return n
}

// Evaluation decodes the serialized evaluation column. Malformed JSON is
// treated as absent.
func Evaluation(s string) *model.Evaluation {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var ev model.Evaluation
	if err := json.Unmarshal([]byte(s), &ev); err != nil {
		return nil
	}
	return &ev
}

// Topics decodes a topics cell, which is either a JSON-encoded array or a
// comma-joined list depending on which path wrote it.
func Topics(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") {
		var list []string
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			return trimAll(list)
		}
	}
	return trimAll(strings.Split(s, ","))
}

// JoinTopics is the canonical serialization used on write paths.
func JoinTopics(topics []string) string {
	return strings.Join(topics, ", ")
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

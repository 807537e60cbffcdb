package binding

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultDelimiter joins the values of multi-valued fields.
const DefaultDelimiter = " "

// Canonical layouts for picker values.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DateTimeLayout = "2006-01-02T15:04"
)

var truthy = map[string]bool{
	"1": true, "true": true, "on": true, "yes": true, "checked": true,
}

// Toggle maps a raw value onto exactly one of on or off.
func Toggle(raw, on, off string) string {
	if raw == on {
		return on
	}
	if raw == off {
		return off
	}
	if truthy[strings.ToLower(strings.TrimSpace(raw))] {
		return on
	}
	return off
}

// ToggleChecked maps a checked state onto on or off.
func ToggleChecked(checked bool, on, off string) string {
	if checked {
		return on
	}
	return off
}

// JoinValues encodes a multi-valued field as one delimiter-joined string.
// Empty entries are dropped.
func JoinValues(values []string, delimiter string) string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	kept := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, delimiter)
}

// SplitValues decodes a delimiter-joined string.
func SplitValues(joined, delimiter string) []string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	parts := strings.Split(joined, delimiter)
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			values = append(values, p)
		}
	}
	return values
}

// Stringify converts a record value to its form string. A nil value reports
// false so the caller falls back to the declared default.
func Stringify(v any, delimiter string) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return FormatNumber(val), true
	case float32:
		return FormatNumber(float64(val)), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	case []string:
		return JoinValues(val, delimiter), true
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := Stringify(item, delimiter); ok {
				parts = append(parts, s)
			}
		}
		return JoinValues(parts, delimiter), true
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val), true
		}
		return string(encoded), true
	}
}

// FormatNumber renders a number in its shortest decimal form.
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ClampNumber parses raw and clamps it to [min, max], snapping to step from
// min when step is positive. Unparseable input yields fallback.
func ClampNumber(raw string, min, max, step, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) {
		f = fallback
	}
	if step > 0 {
		places := decimals(step)
		if d := decimals(min); d > places {
			places = d
		}
		f = roundTo(min+math.Round((f-min)/step)*step, places)
	}
	if f < min {
		f = min
	}
	if f > max {
		f = max
	}
	return f
}

// decimals counts the fractional digits of f in its shortest form.
func decimals(f float64) int {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

func roundTo(f float64, places int) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', places, 64), 64)
	if err != nil {
		return f
	}
	return rounded
}

var dateInputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	DateTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CanonicalDate normalises raw to YYYY-MM-DD, or "" when it is not a date.
func CanonicalDate(raw string) string {
	if t, ok := parseTimestamp(raw); ok {
		return t.Format(DateLayout)
	}
	return ""
}

// CanonicalDateTime normalises raw to YYYY-MM-DDTHH:MM, or "".
func CanonicalDateTime(raw string) string {
	if t, ok := parseTimestamp(raw); ok {
		return t.Format(DateTimeLayout)
	}
	return ""
}

// CanonicalTime normalises raw to HH:MM, or "".
func CanonicalTime(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{TimeLayout, "15:04:05", "3:04PM", "3:04 PM"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(TimeLayout)
		}
	}
	if t, ok := parseTimestamp(raw); ok {
		return t.Format(TimeLayout)
	}
	return ""
}

// CanonicalColor normalises raw to lowercase #rrggbb, or fallback.
func CanonicalColor(raw, fallback string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(c, "#") {
		c = "#" + c
	}
	hex := c[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return fallback
	}
	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return fallback
	}
	return "#" + hex
}

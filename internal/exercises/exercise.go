package exercises

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dateFormat renders dates the way clients expect them: day-of-week, month,
// day and year, no time component, e.g. "Sun Jan 01 2023".
const dateFormat = "Mon Jan 02 2006"

type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID      string             `bson:"userId" json:"userId"`
	Description string             `bson:"description" json:"description"`
	Duration    Duration           `bson:"duration" json:"duration"`
	Date        time.Time          `bson:"date" json:"date"`
}

// Duration is the caller supplied exercise duration. The unit is caller
// convention and is not validated; non-numeric input is kept as a NaN
// sentinel, which renders as JSON null.
type Duration float64

func ParseDuration(value string) Duration {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return Duration(math.NaN())
	}
	return Duration(parsed)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	f := float64(d)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Duration(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*d = Duration(math.NaN())
		return nil
	}
	*d = Duration(f)
	return nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	dateFormat,
}

// ParseDate mirrors the permissive date handling of the API: an empty value
// falls back to "now", an unparseable non-empty value yields the zero time,
// which is stored and later rendered as "Invalid Date".
func ParseDate(value string) time.Time {
	if value == "" {
		return time.Now()
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// ParseFilterDate parses a from/to query filter value. Values that cannot
// be parsed report ok=false and the filter is skipped.
func ParseFilterDate(value string) (_ time.Time, ok bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func FormatDate(date time.Time) string {
	if date.IsZero() {
		return "Invalid Date"
	}
	return date.UTC().Format(dateFormat)
}

package workouts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ExerciseEntry is one exercise of an incoming workout payload. Clients
// send sets, reps and weight in whatever shape they feel like (numbers,
// numeric strings, garbage), so those fields are coerced with defaults
// instead of rejected.
type ExerciseEntry struct {
	Name   string     `json:"name"`
	Sets   FlexNumber `json:"sets"`
	Reps   FlexNumber `json:"reps"`
	Weight FlexNumber `json:"weight"`
	Notes  string     `json:"notes"`
}

type AddWorkoutRequest struct {
	Date      FlexTime        `json:"date"`
	Notes     string          `json:"notes"`
	Exercises []ExerciseEntry `json:"exercises"`
}

type AppendExercisesRequest struct {
	Exercises []ExerciseEntry `json:"exercises"`
}

// FlexTime accepts the date shapes clients actually send: RFC3339,
// a bare date like "2024-03-05", a space-separated datetime, or epoch
// milliseconds. Absent and null mean "use the server clock".
type FlexTime struct {
	present bool
	value   time.Time
}

var flexTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		t.value = time.UnixMilli(int64(v)).UTC()
		t.present = true
		return nil
	case string:
		if v == "" {
			return nil
		}
		for _, layout := range flexTimeLayouts {
			parsed, err := time.Parse(layout, v)
			if err == nil {
				t.value = parsed
				t.present = true
				return nil
			}
		}
		return fmt.Errorf("unrecognized date [%s]", v)
	default:
		return errors.New("unrecognized date value")
	}
}

// Or returns the parsed time, or def when the field was absent or null.
func (t FlexTime) Or(def time.Time) time.Time {
	if !t.present {
		return def
	}
	return t.value
}

// FlexNumber accepts a JSON number, a numeric string, or junk, and
// remembers enough to coerce later. A zero FlexNumber means the field
// was absent.
type FlexNumber struct {
	present bool
	truthy  bool
	valid   bool
	value   float64
}

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	n.present = true
	n.truthy = false
	n.valid = false
	n.value = 0

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		// null stays non-truthy
	case float64:
		n.value = v
		n.valid = true
		n.truthy = v != 0
	case string:
		n.truthy = v != ""
		if f, ok := parseLeadingNumber(v); ok {
			n.value = f
			n.valid = true
		}
	case bool:
		n.truthy = v
	default:
		// objects and arrays count as present but never parse
		n.truthy = true
	}
	return nil
}

// Provided reports whether the field was sent with a usable-looking value.
// Absent, null, zero and empty-string all count as not provided.
func (n FlexNumber) Provided() bool {
	return n.present && n.truthy
}

// IntOr returns the truncated value, or def when the value is missing,
// unparseable or zero.
func (n FlexNumber) IntOr(def int) int {
	if !n.valid {
		return def
	}
	if v := int(n.value); v != 0 {
		return v
	}
	return def
}

// FloatOr returns the value, or def when missing or unparseable.
func (n FlexNumber) FloatOr(def float64) float64 {
	if !n.valid || n.value == 0 {
		return def
	}
	return n.value
}

// parseLeadingNumber reads the longest numeric prefix of s, so "12kg"
// still yields 12 the way sloppy clients expect.
func parseLeadingNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)

	end := 0
	seenDigit := false
	seenDot := false
loop:
	for i, c := range s {
		switch {
		case c == '+' || c == '-':
			if i != 0 {
				break loop
			}
		case c == '.':
			if seenDot {
				break loop
			}
			seenDot = true
		case c >= '0' && c <= '9':
			seenDigit = true
		default:
			break loop
		}
		end = i + 1
	}

	if !seenDigit {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

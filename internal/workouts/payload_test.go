package workouts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexNumber_coercion(t *testing.T) {
	cases := []struct {
		name         string
		payload      string
		wantProvided bool
		wantInt      int
		wantFloat    float64
	}{
		{name: "number", payload: `{"v": 12}`, wantProvided: true, wantInt: 12, wantFloat: 12},
		{name: "float truncates for int", payload: `{"v": 12.9}`, wantProvided: true, wantInt: 12, wantFloat: 12.9},
		{name: "numeric string", payload: `{"v": "15"}`, wantProvided: true, wantInt: 15, wantFloat: 15},
		{name: "string with unit suffix", payload: `{"v": "15kg"}`, wantProvided: true, wantInt: 15, wantFloat: 15},
		{name: "garbage string falls back", payload: `{"v": "heavy"}`, wantProvided: true, wantInt: 3, wantFloat: 0},
		{name: "zero is not provided", payload: `{"v": 0}`, wantProvided: false, wantInt: 3, wantFloat: 0},
		{name: "empty string is not provided", payload: `{"v": ""}`, wantProvided: false, wantInt: 3, wantFloat: 0},
		{name: "null is not provided", payload: `{"v": null}`, wantProvided: false, wantInt: 3, wantFloat: 0},
		{name: "absent is not provided", payload: `{}`, wantProvided: false, wantInt: 3, wantFloat: 0},
		{name: "negative stays negative", payload: `{"v": -5}`, wantProvided: true, wantInt: -5, wantFloat: -5},
		{name: "decimal string", payload: `{"v": "72.5"}`, wantProvided: true, wantInt: 72, wantFloat: 72.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var target struct {
				V FlexNumber `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &target))
			assert.Equal(t, tc.wantProvided, target.V.Provided())
			assert.Equal(t, tc.wantInt, target.V.IntOr(3))
			assert.InDelta(t, tc.wantFloat, target.V.FloatOr(0), 0.0001)
		})
	}
}

func TestFlexTime_parsing(t *testing.T) {
	fallback := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		payload string
		want    time.Time
		wantErr bool
	}{
		{name: "rfc3339", payload: `{"date": "2024-03-05T18:30:00Z"}`, want: time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC)},
		{name: "date only", payload: `{"date": "2024-03-05"}`, want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{name: "datetime without zone", payload: `{"date": "2024-03-05T18:30:00"}`, want: time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC)},
		{name: "space separated datetime", payload: `{"date": "2024-03-05 18:30:00"}`, want: time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC)},
		{name: "epoch millis", payload: `{"date": 1709663400000}`, want: time.UnixMilli(1709663400000).UTC()},
		{name: "absent falls back", payload: `{}`, want: fallback},
		{name: "null falls back", payload: `{"date": null}`, want: fallback},
		{name: "empty string falls back", payload: `{"date": ""}`, want: fallback},
		{name: "garbage errors", payload: `{"date": "next tuesday"}`, wantErr: true},
		{name: "bool errors", payload: `{"date": true}`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var target struct {
				Date FlexTime `json:"date"`
			}
			err := json.Unmarshal([]byte(tc.payload), &target)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(target.Date.Or(fallback)))
		})
	}
}

func TestExerciseEntry_unmarshal(t *testing.T) {
	payload := `{
		"name": "Press banca",
		"sets": "4",
		"reps": 10,
		"weight": "72.5",
		"notes": "buenas sensaciones"
	}`

	var entry ExerciseEntry
	require.NoError(t, json.Unmarshal([]byte(payload), &entry))

	assert.Equal(t, "Press banca", entry.Name)
	assert.Equal(t, 4, entry.Sets.IntOr(3))
	assert.Equal(t, 10, entry.Reps.IntOr(8))
	assert.InDelta(t, 72.5, entry.Weight.FloatOr(0), 0.0001)
	assert.Equal(t, "buenas sensaciones", entry.Notes)
}

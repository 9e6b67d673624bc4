package forms

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"ev-tracker/internal/apperr"
)

func TestQuestionnaire_ValidatesTypes(t *testing.T) {
	vals, err := Questionnaire.Validate(map[string]any{
		"number_of_sites":          float64(3),
		"has_analog_devices":       true,
		"preferred_cutover_window": "weekend",
		"current_phone_system":     "  Avaya IP Office ",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if vals["number_of_sites"] != int64(3) {
		t.Fatalf("expected int64 3, got %#v", vals["number_of_sites"])
	}
	if vals["current_phone_system"] != "Avaya IP Office" {
		t.Fatalf("expected trimmed string, got %#v", vals["current_phone_system"])
	}
}

func TestQuestionnaire_RejectsUnknownAndMismatched(t *testing.T) {
	bad := []map[string]any{
		{"favourite_colour": "blue"},
		{"number_of_sites": 2.5},
		{"number_of_sites": "two"},
		{"has_call_queues": "yes"},
		{"preferred_cutover_window": "midnight"},
	}
	for _, raw := range bad {
		if _, err := Questionnaire.Validate(raw); !errors.Is(err, apperr.ErrBadRequest) {
			t.Fatalf("%v: expected bad request, got %v", raw, err)
		}
	}
}

func TestPhaseTasks_MergeAndRemove(t *testing.T) {
	cur := Values{"teams_licenses_assigned": true, "numbers_assigned": false}
	out, err := PhaseTasks.Merge(cur, map[string]any{"numbers_assigned": true, "teams_licenses_assigned": nil})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if _, ok := out["teams_licenses_assigned"]; ok {
		t.Fatalf("expected key removed")
	}
	if out["numbers_assigned"] != true {
		t.Fatalf("expected numbers_assigned true")
	}
	if cur["numbers_assigned"] != false {
		t.Fatalf("current map must not be mutated")
	}
}

func TestValues_ScanRoundTripKeepsIntegers(t *testing.T) {
	data, _ := json.Marshal(map[string]any{"number_of_sites": 4, "has_call_queues": true})
	var v Values
	if err := v.Scan(data); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if v["number_of_sites"] != int64(4) || v["has_call_queues"] != true {
		t.Fatalf("unexpected values %#v", v)
	}

	var empty Values
	if err := empty.Scan(nil); err != nil || empty == nil {
		t.Fatalf("expected empty non-nil values, got %#v (%v)", empty, err)
	}
}

func TestQuestionnaire_RejectsOutOfRangeIntegers(t *testing.T) {
	bad := []map[string]any{
		{"number_of_sites": 1e20},
		{"number_of_sites": float64(math.MaxInt64)},
		{"internet_bandwidth_mbps": -1e19},
		{"analog_device_count": float64(-1)},
		{"call_queue_count": json.Number("-3")},
		{"auto_attendant_count": json.Number("99999999999999999999")},
	}
	for _, raw := range bad {
		if _, err := Questionnaire.Validate(raw); !errors.Is(err, apperr.ErrBadRequest) {
			t.Fatalf("%v: expected bad request, got %v", raw, err)
		}
	}

	vals, err := Questionnaire.Validate(map[string]any{"analog_device_count": float64(0), "number_of_sites": float64(1 << 40)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if vals["analog_device_count"] != int64(0) || vals["number_of_sites"] != int64(1<<40) {
		t.Fatalf("unexpected values %#v", vals)
	}
}

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/julianstephens/atoms/internal/constants"
)

func TestEncodeDecodeRecurrence(t *testing.T) {
	ref := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)
	biweekly, err := NewBiweekly(1, ref)
	if err != nil {
		t.Fatalf("NewBiweekly failed: %v", err)
	}

	tests := []struct {
		name string
		rule Recurrence
	}{
		{"daily", Daily{}},
		{"weekly", Weekly{Day: time.Sunday}},
		{"biweekly", biweekly},
		{"monthly", Monthly{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeRecurrence(EncodeRecurrence(tt.rule))
			if err != nil {
				t.Fatalf("DecodeRecurrence failed: %v", err)
			}
			if decoded.Type() != tt.rule.Type() {
				t.Errorf("type = %s, want %s", decoded.Type(), tt.rule.Type())
			}
			if decoded.String() != tt.rule.String() {
				t.Errorf("String() = %q, want %q", decoded.String(), tt.rule.String())
			}
		})
	}
}

func TestDecodeRecurrenceRejectsInvalidStates(t *testing.T) {
	bad := 7
	specs := []RecurrenceSpec{
		{Type: constants.RecurrenceWeekly},
		{Type: constants.RecurrenceWeekly, DayOfWeek: &bad},
		{Type: constants.RecurrenceBiweekly, DayOfWeek: new(int)},
		{Type: constants.RecurrenceBiweekly, DayOfWeek: new(int), ReferenceDate: "not-a-date"},
	}
	for _, spec := range specs {
		if _, err := DecodeRecurrence(spec); err == nil {
			t.Errorf("DecodeRecurrence(%+v) should fail", spec)
		}
	}
}

func TestDecodeRecurrenceUnknownTag(t *testing.T) {
	rule, err := DecodeRecurrence(RecurrenceSpec{Type: "fortnightly-ish"})
	if err != nil {
		t.Fatalf("unknown tags should decode without error: %v", err)
	}
	u, ok := rule.(Unknown)
	if !ok {
		t.Fatalf("expected Unknown, got %T", rule)
	}
	if u.Tag != "fortnightly-ish" {
		t.Errorf("Tag = %q", u.Tag)
	}
	if EncodeRecurrence(rule).Type != "fortnightly-ish" {
		t.Error("Unknown should re-encode with its original tag")
	}
}

func TestEncodeNilRecurrenceIsDaily(t *testing.T) {
	if spec := EncodeRecurrence(nil); spec.Type != constants.RecurrenceDaily {
		t.Errorf("EncodeRecurrence(nil).Type = %s, want daily", spec.Type)
	}
}

func TestHabitJSON(t *testing.T) {
	habit := Habit{
		ID:         "h1",
		Name:       "Stretch",
		Recurrence: Weekly{Day: time.Wednesday},
		Order:      2,
		GoalAmount: 1,
		CreatedAt:  time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(habit)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Habit
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	weekly, ok := decoded.Recurrence.(Weekly)
	if !ok || weekly.Day != time.Wednesday {
		t.Errorf("recurrence = %#v, want Weekly{Wednesday}", decoded.Recurrence)
	}
	if decoded.Name != habit.Name || decoded.Order != 2 || !decoded.CreatedAt.Equal(habit.CreatedAt) {
		t.Errorf("decoded habit mismatch: %+v", decoded)
	}
}

func TestMapToSettings(t *testing.T) {
	s, err := MapToSettings(map[string]string{
		constants.SettingTrackingEpoch:  "2025-06-01",
		constants.SettingRateWindowDays: "14",
		constants.SettingSyncEnabled:    "true",
	})
	if err != nil {
		t.Fatalf("MapToSettings failed: %v", err)
	}
	if s.TrackingEpoch != "2025-06-01" || s.RateWindowDays != 14 || !s.SyncEnabled {
		t.Errorf("unexpected settings: %+v", s)
	}
	if s.Timezone != constants.DefaultTimezone {
		t.Errorf("missing keys should keep defaults, got timezone %q", s.Timezone)
	}

	roundTrip, err := MapToSettings(SettingsToMap(s))
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if roundTrip != s {
		t.Errorf("round trip = %+v, want %+v", roundTrip, s)
	}

	if _, err := MapToSettings(map[string]string{constants.SettingRateWindowDays: "lots"}); err == nil {
		t.Error("expected error for non-numeric rate_window_days")
	}
}

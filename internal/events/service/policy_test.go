package service

import (
	"testing"
	"time"

	"posada/pkg/model"
)

func eventIntent(day int, startHour, endHour int, services []string, party int) model.EventIntent {
	date := time.Date(2026, 10, day, 0, 0, 0, 0, time.UTC)
	return model.EventIntent{
		Date:       date,
		StartTime:  date.Add(time.Duration(startHour) * time.Hour),
		EndTime:    date.Add(time.Duration(endHour) * time.Hour),
		PartySize:  party,
		ServiceIDs: services,
	}
}

func TestEventPolicy_Score(t *testing.T) {
	p := NewPolicy()

	tests := []struct {
		name   string
		intent model.EventIntent
		want   float64
	}{
		{
			name:   "party and hours and services",
			intent: eventIntent(1, 14, 18, []string{"s1", "s2"}, 30),
			want:   30*100 + 4*50 + 2*20,
		},
		{
			name:   "no services",
			intent: eventIntent(1, 9, 10, nil, 5),
			want:   5*100 + 1*50,
		},
		{
			name: "fractional hours",
			intent: model.EventIntent{
				Date:      time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
				StartTime: time.Date(2026, 10, 1, 14, 0, 0, 0, time.UTC),
				EndTime:   time.Date(2026, 10, 1, 15, 30, 0, 0, time.UTC),
				PartySize: 10,
			},
			want: 10*100 + 1.5*50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Score(tt.intent); got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventPolicy_Conflicts(t *testing.T) {
	p := NewPolicy()

	base := eventIntent(1, 14, 18, []string{"s7", "s9"}, 20)

	tests := []struct {
		name  string
		other model.EventIntent
		want  bool
	}{
		{
			name:  "shared service overlapping hours",
			other: eventIntent(1, 16, 20, []string{"s7"}, 10),
			want:  true,
		},
		{
			name:  "shared service adjacent hours",
			other: eventIntent(1, 18, 22, []string{"s7"}, 10),
			want:  false,
		},
		{
			name:  "overlapping hours no shared service",
			other: eventIntent(1, 16, 20, []string{"s1"}, 10),
			want:  false,
		},
		{
			name:  "shared service contained hours",
			other: eventIntent(1, 15, 16, []string{"s9"}, 10),
			want:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Conflicts(base, tt.other); got != tt.want {
				t.Errorf("Conflicts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventPolicy_KeyIsCalendarDate(t *testing.T) {
	p := NewPolicy()

	if got := p.Key(eventIntent(1, 14, 18, nil, 1)); got != "2026-10-01" {
		t.Errorf("Key() = %q, want 2026-10-01", got)
	}
	if p.Key(eventIntent(1, 14, 18, nil, 1)) == p.Key(eventIntent(2, 14, 18, nil, 1)) {
		t.Error("different days produced the same key")
	}
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNextRun(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before the hour runs today",
			now:  time.Date(2023, 11, 15, 7, 30, 0, 0, ny),
			want: time.Date(2023, 11, 15, 9, 0, 0, 0, ny),
		},
		{
			name: "exactly on the hour waits a day",
			now:  time.Date(2023, 11, 15, 9, 0, 0, 0, ny),
			want: time.Date(2023, 11, 16, 9, 0, 0, 0, ny),
		},
		{
			name: "after the hour runs tomorrow",
			now:  time.Date(2023, 11, 15, 22, 0, 0, 0, ny),
			want: time.Date(2023, 11, 16, 9, 0, 0, 0, ny),
		},
		{
			name: "utc clock already on the next day",
			now:  time.Date(2023, 11, 16, 3, 0, 0, 0, time.UTC),
			want: time.Date(2023, 11, 16, 9, 0, 0, 0, ny),
		},
		{
			name: "across the fall back transition",
			now:  time.Date(2023, 11, 4, 12, 0, 0, 0, ny),
			want: time.Date(2023, 11, 5, 9, 0, 0, 0, ny),
		},
		{
			name: "end of month",
			now:  time.Date(2023, 12, 31, 10, 0, 0, 0, ny),
			want: time.Date(2024, 1, 1, 9, 0, 0, 0, ny),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextRun(tt.now, ny, 9); !got.Equal(tt.want) {
				t.Fatalf("NextRun() = %v, want %v", got, tt.want)
			}
		})
	}
}

type recordingDispatcher struct {
	days []time.Time
}

func (r *recordingDispatcher) Dispatch(_ context.Context, today time.Time) *DispatchReport {
	r.days = append(r.days, today)
	return &DispatchReport{Date: today}
}

func TestRunOnceUsesLocalDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	rec := &recordingDispatcher{}
	s := NewScheduler(rec, ny, 9, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2023, 11, 16, 2, 0, 0, 0, time.UTC) }

	s.RunOnce(context.Background())
	if len(rec.days) != 1 || rec.days[0].Format(time.DateOnly) != "2023-11-15" {
		t.Fatalf("dispatched for %v, want 2023-11-15", rec.days)
	}
}

package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestNextRun(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Time
	}{
		{
			name: "before the hour runs the same day",
			now:  time.Date(2024, 3, 10, 1, 30, 0, 0, time.UTC),
			hour: 2,
			want: time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "after the hour runs the next day",
			now:  time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC),
			hour: 2,
			want: time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly on the hour runs the next day",
			now:  time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC),
			hour: 2,
			want: time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "month rollover",
			now:  time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC),
			hour: 2,
			want: time.Date(2024, 4, 1, 2, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextRun(tt.now, tt.hour)
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRepeatedTimer(t *testing.T) {
	var runs int32
	rt := NewRepeatedTimer(10*time.Millisecond, func() {
		atomic.AddInt32(&runs, 1)
	})
	time.Sleep(35 * time.Millisecond)
	rt.Stop()

	got := atomic.LoadInt32(&runs)
	if got < 2 {
		t.Errorf("expected at least 2 runs, got %d", got)
	}

	time.Sleep(25 * time.Millisecond)
	if atomic.LoadInt32(&runs) != got {
		t.Error("timer kept running after stop")
	}
}

package contest

import (
	"testing"
	"time"
)

func TestTaskProgressPercent(t *testing.T) {
	tests := []struct {
		solved, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{0, 4, 0},
		{1, 3, 33},
		{2, 3, 67},
		{4, 4, 100},
		{5, 4, 100},
		{-1, 4, 0},
	}
	for _, tt := range tests {
		if got := TaskProgressPercent(tt.solved, tt.total); got != tt.want {
			t.Errorf("TaskProgressPercent(%d, %d) = %d, want %d", tt.solved, tt.total, got, tt.want)
		}
	}

	for total := 0; total <= 20; total++ {
		for solved := 0; solved <= total; solved++ {
			if p := TaskProgressPercent(solved, total); p < 0 || p > 100 {
				t.Fatalf("TaskProgressPercent(%d, %d) = %d out of range", solved, total, p)
			}
		}
	}
}

func TestDeadlineProgressPercent(t *testing.T) {
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * 24 * time.Hour)

	tests := []struct {
		name       string
		start, end time.Time
		now        time.Time
		want       int
	}{
		{"before start", start, end, start.Add(-time.Hour), 0},
		{"at start", start, end, start, 0},
		{"midway", start, end, start.Add(5 * 24 * time.Hour), 50},
		{"after end", start, end, end.Add(48 * time.Hour), 100},
		{"end before start", end, start, start, 0},
		{"empty window", start, start, start, 0},
		{"zero start", time.Time{}, end, start, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeadlineProgressPercent(tt.start, tt.end, tt.now); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDaysLeftLabel(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, "Срок завершен"},
		{-3, "Срок завершен"},
		{1, "Осталось 1 день"},
		{2, "Осталось 2 дня"},
		{5, "Осталось 5 дней"},
		{11, "Осталось 11 дней"},
		{12, "Осталось 12 дней"},
		{21, "Осталось 21 день"},
		{23, "Осталось 23 дня"},
		{111, "Осталось 111 дней"},
	}
	for _, tt := range tests {
		if got := DaysLeftLabel(tt.days); got != tt.want {
			t.Errorf("DaysLeftLabel(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

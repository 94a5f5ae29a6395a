package contest

import (
	"math"
	"time"

	"github.com/hacknet/portal/internal/messages"
)

// TaskProgressPercent is round(solved/total*100), clamped to [0,100], and
// 0 when total is not positive.
func TaskProgressPercent(solved, total int) int {
	if total <= 0 {
		return 0
	}
	return clampPercent(math.Round(float64(solved) / float64(total) * 100))
}

// DeadlineProgressPercent is the elapsed share of [start,end] at now,
// clamped to [0,100]. An empty or inverted window yields 0.
func DeadlineProgressPercent(start, end, now time.Time) int {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return 0
	}
	ratio := float64(now.Sub(start)) / float64(end.Sub(start))
	return clampPercent(math.Round(ratio * 100))
}

func clampPercent(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return int(v)
}

// DaysLeftLabel renders the remaining-days badge with Russian plural
// agreement.
func DaysLeftLabel(days int) string {
	if days <= 0 {
		return messages.Get("contest.deadline_passed")
	}
	mod10, mod100 := days%10, days%100
	noun := messages.Get("contest.day_many")
	if mod10 == 1 && mod100 != 11 {
		noun = messages.Get("contest.day_one")
	}
	if mod10 >= 2 && mod10 <= 4 && (mod100 < 12 || mod100 > 14) {
		noun = messages.Get("contest.day_few")
	}
	return messages.Format("contest.days_left", days, noun)
}

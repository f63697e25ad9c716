package kegel

import (
	"sort"
	"time"
)

// ComputeStreak returns the number of consecutive calendar days, ending at
// 'now', with at least one session. Duplicate dates count once. Dates are
// compared at local midnight.
func ComputeStreak(dates []time.Time, now time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := localMidnight(d)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].After(days[j])
	})

	streak := 0
	for _, day := range days {
		if DaysBetween(day, now) != streak {
			break
		}
		streak++
	}
	return streak
}

// ComputeLocalStats aggregates the stats board numbers from local records,
// used when the remote stats endpoint is not reachable.
func ComputeLocalStats(records []Session, now time.Time) Stats {
	uniqueDays := make(map[string]struct{})
	var dates []time.Time
	var totalTime float64
	for _, r := range records {
		totalTime += r.Duration
		if _, ok := uniqueDays[r.Date]; ok {
			continue
		}
		uniqueDays[r.Date] = struct{}{}
		if d, err := ParseDate(r.Date); err == nil {
			dates = append(dates, d)
		}
	}

	return Stats{
		TotalDays:     len(uniqueDays),
		TotalSessions: len(records),
		TotalTime:     int(totalTime + 0.5),
		Streak:        ComputeStreak(dates, now),
	}
}

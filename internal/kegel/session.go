package kegel

import (
	"math"
	"time"
)

// Session is one completed training session. Created once on session
// completion, never mutated afterwards.
type Session struct {
	ID           int       `json:"id,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	Date         string    `json:"date"` // YYYY-MM-DD, local timezone
	Sets         int       `json:"sets"`
	Reps         int       `json:"reps"`
	Duration     float64   `json:"duration"` // minutes, one fractional digit
	ContractTime int       `json:"contract_time"`
	RelaxTime    int       `json:"relax_time"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// Stats are the aggregate numbers shown on the stats board.
type Stats struct {
	TotalDays     int `json:"totalDays"`
	TotalSessions int `json:"totalSessions"`
	TotalTime     int `json:"totalTime"` // minutes, rounded
	Streak        int `json:"streak"`
}

// ComputeDuration returns the session duration in minutes, rounded to one
// decimal: all contract+relax cycles plus the between-set rests. Rest after
// the last set is not counted.
func ComputeDuration(s Settings) float64 {
	activeSeconds := s.TotalSets * s.RepsPerSet * (s.ContractTime + s.RelaxTime)
	restSets := s.TotalSets - 1
	if restSets < 0 {
		restSets = 0
	}
	restSeconds := restSets * s.RestTime
	minutes := float64(activeSeconds+restSeconds) / 60
	return math.Round(minutes*10) / 10
}

const DateLayout = "2006-01-02"

// FormatDate formats a timestamp as a local calendar date.
func FormatDate(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date in the local timezone.
func ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, time.Local)
}

func localMidnight(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// DaysBetween returns the number of whole calendar days from 'day' back to
// 'today', both taken at local midnight.
func DaysBetween(day, today time.Time) int {
	return int(localMidnight(today).Sub(localMidnight(day)).Hours() / 24)
}

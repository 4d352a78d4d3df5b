package domain

import "time"

const TrendDays = 7

type Stats struct {
	TotalTasks           int64              `json:"totalTasks"`
	TasksByStatus        map[Status]int64   `json:"tasksByStatus"`
	TasksByPriority      map[Priority]int64 `json:"tasksByPriority"`
	AvgCompletionTime    float64            `json:"avgCompletionTime"`
	OnTimeCompletionRate float64            `json:"onTimeCompletionRate"`
}

type TrendBucket struct {
	Created   int64 `json:"created"`
	Completed int64 `json:"completed"`
}

// Trends maps an ISO date (YYYY-MM-DD, UTC) to the activity of that day.
type Trends map[string]*TrendBucket

const DateLayout = "2006-01-02"

// DayKey returns the UTC calendar date of t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

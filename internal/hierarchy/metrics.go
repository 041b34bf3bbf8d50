package hierarchy

import (
	"math"
	"time"
)

// Finish runs the single metrics pass: age, close time, overdue status and
// completion percentage. All day arithmetic truncates to whole days.
// CompletionPct is set only for epics with direct children; everything else
// stays nil.
func Finish(records []Record, now time.Time) []Record {
	closedByParent := make(map[string]int)
	for _, r := range records {
		if r.ParentID != nil && r.State == StateClosed {
			closedByParent[*r.ParentID]++
		}
	}

	today := dateOf(now)
	for i := range records {
		r := &records[i]

		if r.State == StateOpened && !r.CreatedAt.IsZero() {
			d := wholeDays(r.CreatedAt, now)
			r.DaysOpen = &d
		}
		if r.ClosedAt != nil && !r.CreatedAt.IsZero() {
			d := wholeDays(r.CreatedAt, *r.ClosedAt)
			r.DaysToClose = &d
		}
		if r.State == StateOpened && r.DueDate != nil {
			due := dateOf(*r.DueDate)
			if due.Before(today) {
				r.IsOverdue = true
				d := int(today.Sub(due).Hours() / 24)
				r.DaysOverdue = &d
			}
		}
		if r.Type == TypeEpic && r.ChildCount > 0 {
			pct := 100.0 * float64(closedByParent[r.ID]) / float64(r.ChildCount)
			pct = math.Round(pct*100) / 100
			r.CompletionPct = &pct
		}
	}
	return records
}

// wholeDays is the truncated whole-day difference between two instants.
func wholeDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// dateOf truncates an instant to its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package service

import (
	"time"

	"github.com/unitutor/scheduling-api/internal/models"
)

// ParseClock validates an HH:MM 24-hour string and returns its zero-padded
// form. Zero-padded clock strings order lexicographically, which keeps the
// interval math below on plain string comparisons.
func ParseClock(raw string) (string, bool) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return "", false
	}
	return t.Format("15:04"), true
}

// Overlaps reports whether two half-open [start,end) clock windows intersect.
// Windows that merely touch (end1 == start2) do not overlap.
func Overlaps(start1, end1, start2, end2 string) bool {
	return !(end1 <= start2 || start1 >= end2)
}

// Candidate describes the slot being checked for conflicts.
type Candidate struct {
	Date      time.Time
	StartTime string
	EndTime   string
	TutorID   *string
	RoomID    *string
	// ExcludeID is the id of the event being edited, skipped in comparisons.
	ExcludeID string
}

// FindConflict returns the first existing event that collides with the
// candidate along the given dimension. Rejected and cancelled events are not
// considered. Pure query; no side effects.
func FindConflict(c Candidate, existing []models.Event, dim models.ConflictDimension) *models.Event {
	key := c.TutorID
	if dim == models.ConflictRoom {
		key = c.RoomID
	}
	if key == nil {
		return nil
	}

	day := c.Date.Format("2006-01-02")
	for i := range existing {
		ev := &existing[i]
		if ev.ID == c.ExcludeID || ev.Status.Inactive() {
			continue
		}
		if ev.Date.Format("2006-01-02") != day {
			continue
		}
		evKey := ev.TutorID
		if dim == models.ConflictRoom {
			evKey = ev.RoomID
		}
		if evKey == nil || *evKey != *key {
			continue
		}
		if Overlaps(c.StartTime, c.EndTime, ev.StartTime, ev.EndTime) {
			return ev
		}
	}
	return nil
}

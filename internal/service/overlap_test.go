package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitutor/scheduling-api/internal/models"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"09:00", "09:00", true},
		{"9:00", "09:00", true},
		{"23:59", "23:59", true},
		{"00:00", "00:00", true},
		{"24:00", "", false},
		{"12:60", "", false},
		{"noon", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseClock(tc.raw)
		assert.Equal(t, tc.ok, ok, "input %q", tc.raw)
		assert.Equal(t, tc.want, got, "input %q", tc.raw)
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	// Touching intervals do not overlap.
	assert.False(t, Overlaps("09:00", "10:00", "10:00", "11:00"))
	assert.False(t, Overlaps("10:00", "11:00", "09:00", "10:00"))

	assert.True(t, Overlaps("09:00", "10:30", "10:00", "11:00"))
	assert.True(t, Overlaps("10:00", "11:00", "09:00", "10:30"))
	assert.True(t, Overlaps("09:00", "12:00", "10:00", "11:00"))
	assert.True(t, Overlaps("10:00", "11:00", "09:00", "12:00"))
	assert.True(t, Overlaps("09:00", "10:00", "09:00", "10:00"))

	assert.False(t, Overlaps("08:00", "09:00", "10:00", "11:00"))
}

func strPtr(s string) *string { return &s }

func TestFindConflictSkipsInactiveAndExcluded(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	tutor := "tutor-1"
	existing := []models.Event{
		{ID: "ev-rejected", Date: day, StartTime: "09:00", EndTime: "10:00", TutorID: strPtr(tutor), Status: models.StatusRejected},
		{ID: "ev-cancelled", Date: day, StartTime: "09:00", EndTime: "10:00", TutorID: strPtr(tutor), Status: models.StatusCancelled},
		{ID: "ev-self", Date: day, StartTime: "09:00", EndTime: "10:00", TutorID: strPtr(tutor), Status: models.StatusApproved},
	}

	cand := Candidate{Date: day, StartTime: "09:30", EndTime: "10:30", TutorID: strPtr(tutor), ExcludeID: "ev-self"}
	assert.Nil(t, FindConflict(cand, existing, models.ConflictTutor))

	cand.ExcludeID = ""
	hit := FindConflict(cand, existing, models.ConflictTutor)
	require.NotNil(t, hit)
	assert.Equal(t, "ev-self", hit.ID)
}

func TestFindConflictPendingCountsAsBusy(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	room := "room-1"
	existing := []models.Event{
		{ID: "ev-pending", Date: day, StartTime: "13:00", EndTime: "14:00", RoomID: strPtr(room), Status: models.StatusPending},
	}

	cand := Candidate{Date: day, StartTime: "13:30", EndTime: "15:00", RoomID: strPtr(room)}
	hit := FindConflict(cand, existing, models.ConflictRoom)
	require.NotNil(t, hit)
	assert.Equal(t, "ev-pending", hit.ID)
}

func TestFindConflictDifferentDayOrKey(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	otherDay := day.AddDate(0, 0, 1)
	existing := []models.Event{
		{ID: "ev-other-day", Date: otherDay, StartTime: "09:00", EndTime: "10:00", TutorID: strPtr("tutor-1"), Status: models.StatusApproved},
		{ID: "ev-other-tutor", Date: day, StartTime: "09:00", EndTime: "10:00", TutorID: strPtr("tutor-2"), Status: models.StatusApproved},
		{ID: "ev-no-room", Date: day, StartTime: "09:00", EndTime: "10:00", Status: models.StatusApproved},
	}

	cand := Candidate{Date: day, StartTime: "09:00", EndTime: "10:00", TutorID: strPtr("tutor-1"), RoomID: strPtr("room-1")}
	assert.Nil(t, FindConflict(cand, existing, models.ConflictTutor))
	assert.Nil(t, FindConflict(cand, existing, models.ConflictRoom))

	// Candidate without a room never collides on the room dimension.
	cand.RoomID = nil
	assert.Nil(t, FindConflict(cand, existing, models.ConflictRoom))
}

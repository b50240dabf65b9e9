package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitutor/scheduling-api/internal/models"
)

func TestCourseRepositoryUpsertByNameInserts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (name) DO UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "year", "major_id", "inserted"}).
			AddRow("course-9", "Numerical Methods", 1, nil, true))

	course, outcome, err := repo.UpsertByName(context.Background(), "Numerical Methods")
	require.NoError(t, err)
	assert.Equal(t, models.ResolveCreated, outcome)
	assert.Equal(t, "course-9", course.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpsertByNameFindsExisting(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	major := "major-1"
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (name) DO UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "year", "major_id", "inserted"}).
			AddRow("course-1", "Algorithms", 2, major, false))

	course, outcome, err := repo.UpsertByName(context.Background(), "Algorithms")
	require.NoError(t, err)
	assert.Equal(t, models.ResolveFound, outcome)
	assert.Equal(t, "course-1", course.ID)
	assert.Equal(t, 2, course.Year)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryUpsertByName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRoomRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO rooms")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "inserted"}).
			AddRow("room-7", "B201", true))

	room, outcome, err := repo.UpsertByName(context.Background(), "B201")
	require.NoError(t, err)
	assert.Equal(t, models.ResolveCreated, outcome)
	assert.Equal(t, "B201", room.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, year, major_id FROM courses ORDER BY name ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "year", "major_id"}).
			AddRow("course-1", "Algorithms", 2, "major-1").
			AddRow("course-2", "Databases", 2, "major-1"))

	courses, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Algorithms", courses[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

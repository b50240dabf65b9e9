package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unitutor/scheduling-api/internal/models"
)

const eventColumns = "id, title, date, start_time, end_time, course_id, tutor_id, room_id, event_type, status, notes, related_event_id, created_by, created_at, updated_at"

// ConflictGuard inspects the locked same-day events before a write commits.
// Returning an error aborts the transaction.
type ConflictGuard = func(existing []models.Event) error

// EventRepository provides persistence for scheduled events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events matching the filter. Pagination applies only when
// PageSize is positive; conflict checks list whole days.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	base := "FROM scheduled_events WHERE 1=1"
	var conditions []string
	var args []interface{}

	addArg := func(clause string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(clause, len(args)+1))
		args = append(args, value)
	}

	if filter.Date != nil {
		addArg("date = $%d", filter.Date.Format("2006-01-02"))
	}
	if filter.From != nil {
		addArg("date >= $%d", filter.From.Format("2006-01-02"))
	}
	if filter.To != nil {
		addArg("date <= $%d", filter.To.Format("2006-01-02"))
	}
	if filter.TutorID != "" {
		addArg("tutor_id = $%d", filter.TutorID)
	}
	if filter.RoomID != "" {
		addArg("room_id = $%d", filter.RoomID)
	}
	if filter.CourseID != "" {
		addArg("course_id = $%d", filter.CourseID)
	}
	if filter.ExcludeID != "" {
		addArg("id <> $%d", filter.ExcludeID)
	}
	for _, status := range filter.StatusNotIn {
		addArg("status <> $%d", status)
	}
	if len(filter.StatusIn) > 0 {
		placeholders := make([]string, len(filter.StatusIn))
		for i, status := range filter.StatusIn {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY date ASC, start_time ASC", eventColumns, base)
	total := 0
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = fmt.Sprintf("%s LIMIT %d OFFSET %d", query, filter.PageSize, (page-1)*filter.PageSize)
		countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
		if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
			return nil, 0, fmt.Errorf("count events: %w", err)
		}
	}

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if filter.PageSize <= 0 {
		total = len(events)
	}
	return events, total, nil
}

// ListForMajorYear returns events whose course matches a student's major and
// study year.
func (r *EventRepository) ListForMajorYear(ctx context.Context, majorID string, year int) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM scheduled_events e
		JOIN courses c ON c.id = e.course_id
		WHERE c.major_id = $1 AND c.year = $2
		ORDER BY e.date ASC, e.start_time ASC`, prefixColumns("e", eventColumns))
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, majorID, year); err != nil {
		return nil, fmt.Errorf("list events for major/year: %w", err)
	}
	return events, nil
}

// FindByID loads an event by id.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM scheduled_events WHERE id = $1", eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateChecked inserts an event after the guard re-validated the candidate
// against the locked same-day rows. The lock and insert share one
// transaction, so two concurrent creations cannot both pass the guard.
func (r *EventRepository) CreateChecked(ctx context.Context, event *models.Event, guard ConflictGuard) error {
	return r.withGuardedTx(ctx, event, guard, func(tx *sqlx.Tx) error {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		event.CreatedAt = now
		event.UpdatedAt = now

		const query = `INSERT INTO scheduled_events (id, title, date, start_time, end_time, course_id, tutor_id, room_id, event_type, status, notes, related_event_id, created_by, created_at, updated_at)
			VALUES (:id, :title, :date, :start_time, :end_time, :course_id, :tutor_id, :room_id, :event_type, :status, :notes, :related_event_id, :created_by, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		return nil
	})
}

// UpdateChecked rewrites an event's fields under the same day-lock guard used
// for creation. The event's own row is excluded by the caller's guard.
func (r *EventRepository) UpdateChecked(ctx context.Context, event *models.Event, guard ConflictGuard) error {
	return r.withGuardedTx(ctx, event, guard, func(tx *sqlx.Tx) error {
		return updateEvent(ctx, tx, event)
	})
}

// Update rewrites an event row without conflict guarding. Used for status-only
// transitions where the time window does not change.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	return updateEvent(ctx, r.db, event)
}

// MergeChangeRequest overwrites the parent row with the already-merged field
// values and removes the change-request child in one transaction.
func (r *EventRepository) MergeChangeRequest(ctx context.Context, parent *models.Event, childID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = updateEvent(ctx, tx, parent); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM scheduled_events WHERE id = $1`, childID); err != nil {
		return fmt.Errorf("delete change request: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit merge: %w", err)
	}
	return nil
}

// Delete removes an event by id.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (r *EventRepository) withGuardedTx(ctx context.Context, event *models.Event, guard ConflictGuard, write func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin guarded write: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existing []models.Event
	if existing, err = lockDay(ctx, tx, event); err != nil {
		return err
	}
	if guard != nil {
		if err = guard(existing); err != nil {
			return err
		}
	}
	if err = write(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit guarded write: %w", err)
	}
	return nil
}

// lockDay serialises concurrent conflict checks for the candidate's tutor and
// room on its date. The transaction-scoped advisory locks cover days with no
// rows yet, where SELECT ... FOR UPDATE has nothing to pin and two
// first-writers could both pass the guard; the row locks then hold the
// existing events the guard inspects.
func lockDay(ctx context.Context, tx *sqlx.Tx, event *models.Event) ([]models.Event, error) {
	day := event.Date.Format("2006-01-02")
	conditions := []string{}
	args := []interface{}{day}
	var lockKeys []string

	if event.TutorID != nil {
		args = append(args, *event.TutorID)
		conditions = append(conditions, fmt.Sprintf("tutor_id = $%d", len(args)))
		lockKeys = append(lockKeys, "tutor:"+*event.TutorID+":"+day)
	}
	if event.RoomID != nil {
		args = append(args, *event.RoomID)
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)))
		lockKeys = append(lockKeys, "room:"+*event.RoomID+":"+day)
	}
	if len(conditions) == 0 {
		return nil, nil
	}

	for _, key := range lockKeys {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return nil, fmt.Errorf("acquire day advisory lock: %w", err)
		}
	}

	query := fmt.Sprintf("SELECT %s FROM scheduled_events WHERE date = $1 AND (%s) FOR UPDATE",
		eventColumns, strings.Join(conditions, " OR "))
	var events []models.Event
	if err := tx.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("lock day events: %w", err)
	}
	return events, nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

func updateEvent(ctx context.Context, exec sqlx.ExtContext, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scheduled_events SET title = :title, date = :date, start_time = :start_time, end_time = :end_time, course_id = :course_id, tutor_id = :tutor_id, room_id = :room_id, event_type = :event_type, status = :status, notes = :notes, related_event_id = :related_event_id, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unitutor/scheduling-api/internal/models"
)

// RoomRepository provides persistence for rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns all rooms ordered by name.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, name FROM rooms ORDER BY name ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// FindByID loads a room by id.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `SELECT id, name FROM rooms WHERE id = $1`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// UpsertByName resolves a room by name, creating it when absent. Same
// conflict-returns-existing semantics as courses.
func (r *RoomRepository) UpsertByName(ctx context.Context, name string) (*models.Room, models.ResolveOutcome, error) {
	const query = `INSERT INTO rooms (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, (xmax = 0) AS inserted`
	var row struct {
		models.Room
		Inserted bool `db:"inserted"`
	}
	if err := r.db.GetContext(ctx, &row, query, uuid.NewString(), name); err != nil {
		return nil, models.ResolveInvalid, fmt.Errorf("upsert room by name: %w", err)
	}
	outcome := models.ResolveFound
	if row.Inserted {
		outcome = models.ResolveCreated
	}
	return &row.Room, outcome, nil
}

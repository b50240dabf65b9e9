package models

import "time"

// Major groups courses and students by department programme.
type Major struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Course is a taught subject, optionally bound to a major and study year.
type Course struct {
	ID      string  `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	Year    int     `db:"year" json:"year"`
	MajorID *string `db:"major_id" json:"major_id,omitempty"`
}

// Room is a bookable location identified by name.
type Room struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// ResolveOutcome tags how an id-or-name reference was resolved.
type ResolveOutcome string

const (
	ResolveFound   ResolveOutcome = "found"
	ResolveCreated ResolveOutcome = "created"
	ResolveInvalid ResolveOutcome = "invalid"
)

// StudentProfile links a student user to their programme position.
type StudentProfile struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	DOB        time.Time `db:"dob" json:"dob"`
	StudentID  string    `db:"student_id" json:"student_id"`
	MajorID    *string   `db:"major_id" json:"major_id,omitempty"`
	Year       int       `db:"year" json:"year"`
	CanAdvance bool      `db:"can_advance" json:"can_advance"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

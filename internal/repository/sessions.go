package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/novafit/gym-class-reservation/internal/booking"
	"github.com/novafit/gym-class-reservation/internal/model"
)

const sessionSelect = `SELECT id, cohort, session_date, starts_at, ends_at,
	max_capacity, current_capacity, workout_plan, created_at, updated_at
	FROM class_sessions`

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*model.ClassSession, error) {
	var s model.ClassSession
	var plan []byte
	err := row.Scan(&s.ID, &s.Group, &s.Date, &s.StartTime, &s.EndTime,
		&s.MaxCapacity, &s.CurrentCapacity, &plan, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(plan) > 0 {
		s.WorkoutPlan = plan
	}
	return &s, nil
}

// SessionsInRange lists sessions dated in [from, to), ordered by date
// and start time.  An empty cohort matches every session.
func (s *Store) SessionsInRange(ctx context.Context, from, to time.Time, cohort string) ([]model.ClassSession, error) {
	q := sessionSelect + ` WHERE session_date >= ? AND session_date < ?`
	args := []interface{}{from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02")}
	if cohort != "" {
		q += ` AND cohort = ?`
		args = append(args, cohort)
	}
	q += ` ORDER BY session_date ASC, starts_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]model.ClassSession, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// InsertSession creates a session row and populates the generated ID.
// Occupancy always starts at zero.
func (s *Store) InsertSession(ctx context.Context, sess *model.ClassSession) error {
	const q = `INSERT INTO class_sessions
	           (cohort, session_date, starts_at, ends_at, max_capacity, current_capacity, workout_plan)
	           VALUES (?, ?, ?, ?, ?, 0, ?)`
	var plan interface{}
	if len(sess.WorkoutPlan) > 0 {
		plan = []byte(sess.WorkoutPlan)
	}
	result, err := s.db.ExecContext(ctx, q, sess.Group,
		sess.Date.UTC().Format("2006-01-02"), sess.StartTime, sess.EndTime,
		sess.MaxCapacity, plan)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	sess.ID = uint64(id)
	sess.CurrentCapacity = 0
	return nil
}

// UpdateSession edits the staff-owned fields of a session.  Max
// capacity may never drop below the seats already claimed; the guard
// is enforced in the UPDATE itself so a concurrent booking cannot
// slip under it.
func (s *Store) UpdateSession(ctx context.Context, sess *model.ClassSession) error {
	const q = `UPDATE class_sessions
	           SET cohort = ?, session_date = ?, starts_at = ?, ends_at = ?,
	               max_capacity = ?, workout_plan = ?
	           WHERE id = ? AND current_capacity <= ?`
	var plan interface{}
	if len(sess.WorkoutPlan) > 0 {
		plan = []byte(sess.WorkoutPlan)
	}
	result, err := s.db.ExecContext(ctx, q, sess.Group,
		sess.Date.UTC().Format("2006-01-02"), sess.StartTime, sess.EndTime,
		sess.MaxCapacity, plan, sess.ID, sess.MaxCapacity)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Zero rows can mean a missing session, a tripped capacity
		// guard, or an edit that changed nothing.
		current, err := s.Session(ctx, sess.ID)
		if err != nil {
			return err
		}
		if current.CurrentCapacity > sess.MaxCapacity {
			return ErrCapacityBelowOccupancy
		}
	}
	return nil
}

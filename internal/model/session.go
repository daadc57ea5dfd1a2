package model

import (
	"encoding/json"
	"time"
)

// ClassSession represents a single scheduled class occurrence with a
// fixed seat capacity.  Sessions are created and edited by staff; the
// booking engine only ever adjusts CurrentCapacity as reservations
// settle.
//
// Fields:
//  ID              – primary key identifier.
//  Group           – cohort tag the session belongs to (e.g. "open", "comp").
//  Date            – calendar day of the session, midnight UTC.
//  StartTime       – start of the class, "HH:MM" wall clock (UTC).
//  EndTime         – end of the class, "HH:MM" wall clock (UTC).
//  MaxCapacity     – upper bound on confirmed seats.
//  CurrentCapacity – authoritative occupancy counter; 0 <= current <= max
//                    after every settled transition.
//  WorkoutPlan     – ordered plan items, stored and returned verbatim;
//                    opaque to the booking core.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type ClassSession struct {
	ID              uint64          // class_sessions.id
	Group           string          // class_sessions.cohort
	Date            time.Time       // class_sessions.session_date
	StartTime       string          // class_sessions.starts_at ("HH:MM")
	EndTime         string          // class_sessions.ends_at ("HH:MM")
	MaxCapacity     uint32          // class_sessions.max_capacity
	CurrentCapacity uint32          // class_sessions.current_capacity
	WorkoutPlan     json.RawMessage // class_sessions.workout_plan (nullable JSON)
	CreatedAt       time.Time       // class_sessions.created_at
	UpdatedAt       time.Time       // class_sessions.updated_at
}

// StartsAt combines the session date and start time into a single UTC
// timestamp.  A malformed start time falls back to midnight of the
// session date.
func (s *ClassSession) StartsAt() time.Time {
	t, err := time.Parse("15:04", s.StartTime)
	if err != nil {
		return s.Date
	}
	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// Full reports whether every seat of the session is taken.
func (s *ClassSession) Full() bool {
	return s.CurrentCapacity >= s.MaxCapacity
}

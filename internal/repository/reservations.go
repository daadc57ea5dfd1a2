package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/novafit/gym-class-reservation/internal/booking"
	"github.com/novafit/gym-class-reservation/internal/model"
)

const reservationSelect = `SELECT id, member_id, session_id, status, reserved_at, promoted_at
	FROM reservations`

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var r model.Reservation
	var promoted sql.NullTime
	err := row.Scan(&r.ID, &r.MemberID, &r.SessionID, &r.Status, &r.ReservedAt, &promoted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	if promoted.Valid {
		t := promoted.Time
		r.PromotedAt = &t
	}
	return &r, nil
}

// MemberReservation pairs a reservation with the session facts a
// member's booking list needs, avoiding a second catalog lookup.
type MemberReservation struct {
	ReservationID uint64                  `json:"reservation_id"`
	SessionID     uint64                  `json:"session_id"`
	Status        model.ReservationStatus `json:"status"`
	ReservedAt    time.Time               `json:"reserved_at"`
	PromotedAt    *time.Time              `json:"promoted_at,omitempty"`
	Group         string                  `json:"group"`
	SessionDate   string                  `json:"session_date"`
	StartTime     string                  `json:"start_time"`
	EndTime       string                  `json:"end_time"`
}

// ReservationsByMember lists a member's active reservations joined
// with their sessions, soonest session first.
func (s *Store) ReservationsByMember(ctx context.Context, memberID uint64) ([]MemberReservation, error) {
	const q = `SELECT r.id, r.session_id, r.status, r.reserved_at, r.promoted_at,
	                  s.cohort, s.session_date, s.starts_at, s.ends_at
	           FROM reservations r
	           JOIN class_sessions s ON s.id = r.session_id
	           WHERE r.member_id = ?
	           ORDER BY s.session_date ASC, s.starts_at ASC, r.id ASC`
	rows, err := s.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]MemberReservation, 0)
	for rows.Next() {
		var it MemberReservation
		var promoted sql.NullTime
		var date time.Time
		if err := rows.Scan(&it.ReservationID, &it.SessionID, &it.Status, &it.ReservedAt,
			&promoted, &it.Group, &date, &it.StartTime, &it.EndTime); err != nil {
			return nil, err
		}
		if promoted.Valid {
			t := promoted.Time
			it.PromotedAt = &t
		}
		it.SessionDate = date.UTC().Format("2006-01-02")
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// RosterEntry is one line of a session's roster as staff see it:
// who holds or queues for a seat, in settlement order.
type RosterEntry struct {
	ReservationID uint64                  `json:"reservation_id"`
	MemberID      uint64                  `json:"member_id"`
	MemberName    string                  `json:"member_name"`
	Status        model.ReservationStatus `json:"status"`
	ReservedAt    time.Time               `json:"reserved_at"`
	PromotedAt    *time.Time              `json:"promoted_at,omitempty"`
}

// SessionRoster lists every reservation on a session with member
// names.  Seat holders come first, then the waitlist in queue order.
func (s *Store) SessionRoster(ctx context.Context, sessionID uint64) ([]RosterEntry, error) {
	const q = `SELECT r.id, r.member_id, m.full_name, r.status, r.reserved_at, r.promoted_at
	           FROM reservations r
	           JOIN members m ON m.id = r.member_id
	           WHERE r.session_id = ?
	           ORDER BY FIELD(r.status, ?, ?, ?), r.reserved_at ASC, r.id ASC`
	rows, err := s.db.QueryContext(ctx, q, sessionID,
		model.StatusConfirmed, model.StatusPendingConfirmation, model.StatusWaitlist)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roster := make([]RosterEntry, 0)
	for rows.Next() {
		var e RosterEntry
		var promoted sql.NullTime
		if err := rows.Scan(&e.ReservationID, &e.MemberID, &e.MemberName, &e.Status,
			&e.ReservedAt, &promoted); err != nil {
			return nil, err
		}
		if promoted.Valid {
			t := promoted.Time
			e.PromotedAt = &t
		}
		roster = append(roster, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roster, nil
}

// StatusesByMember maps session IDs to the member's reservation
// status, for decorating schedule views.
func (s *Store) StatusesByMember(ctx context.Context, memberID uint64) (map[uint64]model.ReservationStatus, error) {
	const q = `SELECT session_id, status FROM reservations WHERE member_id = ?`
	rows, err := s.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	statuses := make(map[uint64]model.ReservationStatus)
	for rows.Next() {
		var sid uint64
		var st model.ReservationStatus
		if err := rows.Scan(&sid, &st); err != nil {
			return nil, err
		}
		statuses[sid] = st
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return statuses, nil
}

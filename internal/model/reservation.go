package model

import "time"

// ReservationStatus enumerates the states a reservation can be in
// while it exists.  Cancellation deletes the row; there is no
// persisted cancelled state.
type ReservationStatus string

const (
	// StatusConfirmed holds a counted seat and cost one credit.
	StatusConfirmed ReservationStatus = "CONFIRMED"
	// StatusWaitlist holds no seat and cost nothing; entries are
	// ordered by reservation time.
	StatusWaitlist ReservationStatus = "WAITLIST"
	// StatusPendingConfirmation marks a promoted waitlist entry that
	// now holds a seat without having been separately charged.
	StatusPendingConfirmation ReservationStatus = "PENDING_CONFIRMATION"
)

// Reservation records a member's booking for a specific class
// session.  At most one active reservation exists per
// (member, session) pair.
//
// Fields:
//  ID         – primary key identifier.
//  MemberID   – member who made the reservation.
//  SessionID  – session being reserved.
//  Status     – current state (CONFIRMED, WAITLIST, PENDING_CONFIRMATION).
//  ReservedAt – when the reservation was created; orders the waitlist.
//  PromotedAt – when the entry left the waitlist, if it ever did.
type Reservation struct {
	ID         uint64            // reservations.id
	MemberID   uint64            // reservations.member_id
	SessionID  uint64            // reservations.session_id
	Status     ReservationStatus // reservations.status
	ReservedAt time.Time         // reservations.reserved_at
	PromotedAt *time.Time        // reservations.promoted_at (nullable)
}

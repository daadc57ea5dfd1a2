// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// Reservation event types published on the reservation.events queue.
// Every settled booking transition emits exactly one event (plus a
// promoted event when a cancellation hands the seat to a waitlisted
// member), so downstream consumers can notify members or feed
// analytics without querying the primary database.
const (
	EventConfirmed  = "reservation.confirmed"
	EventWaitlisted = "reservation.waitlisted"
	EventPromoted   = "reservation.promoted"
	EventCancelled  = "reservation.cancelled"
	EventReleased   = "reservation.released"
)

// ReservationEvent describes one settled reservation transition.
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID uint64 `json:"reservation_id"`
	MemberID      uint64 `json:"member_id"`
	SessionID     uint64 `json:"session_id"`
	Group         string `json:"group"`
	SessionDate   string `json:"session_date"`
	StartTime     string `json:"start_time"`
	Current       uint32 `json:"current_capacity"`
	Max           uint32 `json:"max_capacity"`
	Refunded      bool   `json:"refunded"`
	OccurredAt    string `json:"occurred_at"`
}

// Package booking implements the reservation and credit settlement
// engine: the rules that turn a reserve or cancel request into a
// confirmed seat, a waitlist entry or a rejection, and the promotion
// of waitlisted members when seats free up.  The engine holds no
// state of its own; every read and write goes through a Store.
package booking

import "errors"

// Sentinel errors returned by the engine and by Store
// implementations.  Handlers compare with errors.Is and translate
// them into HTTP responses; messages are written to be shown to the
// member as-is.
var (
	// ErrSessionNotFound is returned when the target session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrMemberNotFound is returned when the acting member does not exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrReservationNotFound signals that no active reservation exists
	// for a (member, session) pair.  Cancel treats it as a no-op.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrAlreadyReserved is returned when the member already holds an
	// active reservation (any status) for the session.
	ErrAlreadyReserved = errors.New("you already have a booking for this class")

	// ErrInsufficientCredits blocks a reserve when the member's credit
	// balance is zero.  Recoverable by topping up credits.
	ErrInsufficientCredits = errors.New("not enough credits to book a class")

	// ErrWeeklyQuotaExceeded blocks a confirmed-seat reserve when the
	// member already holds the maximum confirmed bookings for the week
	// of the target session.  Waitlist entries are exempt.
	ErrWeeklyQuotaExceeded = errors.New("weekly class limit reached")

	// ErrTransactionConflict is returned when the atomic commit could
	// not be applied because of a concurrent conflicting update.  The
	// caller should retry the whole request once.
	ErrTransactionConflict = errors.New("could not complete the booking, please try again")
)

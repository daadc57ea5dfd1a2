package booking

import (
	"context"
	"time"

	"github.com/novafit/gym-class-reservation/internal/model"
)

// Store is the engine's only gateway to persistent state.  The MySQL
// implementation lives in internal/repository; tests use an
// in-memory fake.  Lookups return the package sentinel errors
// (ErrSessionNotFound, ErrMemberNotFound, ErrReservationNotFound)
// when no row matches.
type Store interface {
	// ExecTx runs fn inside a single transaction.  Every mutation the
	// engine performs for one request happens inside exactly one
	// ExecTx call; if fn returns an error nothing is persisted.
	// Commit failures caused by concurrent conflicting updates are
	// reported as ErrTransactionConflict.
	ExecTx(ctx context.Context, fn func(Tx) error) error

	// Session returns a session by id without locking it.
	Session(ctx context.Context, id uint64) (*model.ClassSession, error)

	// Member returns a member by id without locking it.
	Member(ctx context.Context, id uint64) (*model.Member, error)

	// Reservation returns the member's active reservation for the
	// session, if any.
	Reservation(ctx context.Context, memberID, sessionID uint64) (*model.Reservation, error)
}

// Tx exposes the locked reads and writes available inside ExecTx.
// SessionForUpdate must be the first lock taken for any session so
// that concurrent claims on the same session serialize; the member
// row is only ever locked after the session row.
type Tx interface {
	// SessionForUpdate loads and locks the session row.  All
	// capacity decisions for the session are made under this lock.
	SessionForUpdate(ctx context.Context, id uint64) (*model.ClassSession, error)

	// MemberForUpdate loads and locks the member row.
	MemberForUpdate(ctx context.Context, id uint64) (*model.Member, error)

	// Reservation returns the member's active reservation for the
	// session, if any.
	Reservation(ctx context.Context, memberID, sessionID uint64) (*model.Reservation, error)

	// CountConfirmedInWindow counts the member's confirmed
	// reservations for sessions dated in [from, to).
	CountConfirmedInWindow(ctx context.Context, memberID uint64, from, to time.Time) (int, error)

	// InsertReservation persists a new reservation and fills in its ID.
	InsertReservation(ctx context.Context, r *model.Reservation) error

	// DeleteReservation removes a reservation row.  Deletion is the
	// only terminal state of a reservation.
	DeleteReservation(ctx context.Context, id uint64) error

	// OldestWaitlisted returns the earliest-queued waitlist entry for
	// the session, locked, or ErrReservationNotFound when the
	// waitlist is empty.
	OldestWaitlisted(ctx context.Context, sessionID uint64) (*model.Reservation, error)

	// PromoteReservation moves a waitlist entry to
	// PENDING_CONFIRMATION and stamps its promotion time.
	PromoteReservation(ctx context.Context, id uint64, promotedAt time.Time) error

	// ClaimSeat increments the session's occupancy by one, bounded by
	// max capacity.  Returns ErrTransactionConflict if the session
	// filled up concurrently.
	ClaimSeat(ctx context.Context, sessionID uint64) error

	// ReleaseSeat decrements the session's occupancy by one, floored
	// at zero.
	ReleaseSeat(ctx context.Context, sessionID uint64) error

	// DebitCredit takes one credit from the member.  Returns
	// ErrInsufficientCredits when the balance is already zero.
	DebitCredit(ctx context.Context, memberID uint64) error

	// RefundCredit returns one credit to the member.
	RefundCredit(ctx context.Context, memberID uint64) error
}

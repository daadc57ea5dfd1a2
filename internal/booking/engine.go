package booking

import (
	"context"
	"errors"
	"time"

	"github.com/novafit/gym-class-reservation/internal/model"
)

// DefaultWeeklyQuota caps confirmed bookings per Monday-to-Sunday
// window for members without a per-member override.
const DefaultWeeklyQuota = 2

// refundCutoff is how far before the session start a confirmed
// cancellation still earns its credit back.
const refundCutoff = time.Hour

// ReserveOutcome describes how a reserve request settled.
type ReserveOutcome string

const (
	ReserveConfirmed  ReserveOutcome = "confirmed"
	ReserveWaitlisted ReserveOutcome = "waitlisted"
)

// CancelOutcome describes how a cancel request settled.
type CancelOutcome string

const (
	CancelRefunded        CancelOutcome = "refunded"
	CancelNoRefund        CancelOutcome = "no_refund"
	CancelReleasedPending CancelOutcome = "released_pending"
	CancelLeftWaitlist    CancelOutcome = "left_waitlist"
	CancelNothingToDo     CancelOutcome = "nothing_to_do"
)

// ReserveResult reports a settled reserve: the created reservation,
// the session it targets and the occupancy after commit.
type ReserveResult struct {
	Outcome     ReserveOutcome
	Reservation *model.Reservation
	Session     *model.ClassSession
	Current     uint32
	Max         uint32
}

// CancelResult reports a settled cancel.  Promoted is the waitlist
// entry that took over the vacated seat, when one existed.
type CancelResult struct {
	Outcome  CancelOutcome
	Session  *model.ClassSession
	Promoted *model.Reservation
	Current  uint32
	Max      uint32
}

// Engine is the reservation and credit settlement engine.  Each call
// validates, applies one atomic transition and returns the result;
// the engine itself is stateless.
type Engine interface {
	Reserve(ctx context.Context, memberID, sessionID uint64) (*ReserveResult, error)
	Cancel(ctx context.Context, memberID, sessionID uint64) (*CancelResult, error)
	ReservationStatus(ctx context.Context, memberID, sessionID uint64) (*model.Reservation, error)
	SessionOccupancy(ctx context.Context, sessionID uint64) (current, max uint32, err error)
}

type engine struct {
	store        Store
	now          func() time.Time
	defaultQuota int
}

// Option tweaks engine construction.
type Option func(*engine)

// WithClock overrides the engine's time source.  Used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *engine) { e.now = now }
}

// WithDefaultQuota overrides the platform-wide weekly quota default.
func WithDefaultQuota(n int) Option {
	return func(e *engine) {
		if n > 0 {
			e.defaultQuota = n
		}
	}
}

// NewEngine builds an Engine over the given store.
func NewEngine(store Store, opts ...Option) Engine {
	e := &engine{
		store:        store,
		now:          time.Now,
		defaultQuota: DefaultWeeklyQuota,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// quotaFor resolves the member's weekly confirmed-booking limit.
func (e *engine) quotaFor(m *model.Member) int {
	if m.WeeklyQuota != nil {
		return int(*m.WeeklyQuota)
	}
	return e.defaultQuota
}

// Reserve turns a booking intent into a confirmed seat or a waitlist
// entry.  Preconditions are checked in order and the first failure
// short-circuits before anything is written: the member needs a
// positive credit balance, and a confirmed seat additionally needs
// headroom under the weekly quota.  When the session is full the
// member is queued instead; waitlist entries cost nothing and are
// exempt from the quota.
//
// The full-or-not decision and the seat claim happen under the
// session row lock, so two concurrent reserves can never both take
// the last seat.  The quota count is read-then-decide: two reserves
// for sessions in the same week that run concurrently on different
// sessions can both pass the check and leave the member one over
// quota.  That bound is best-effort by design.
func (e *engine) Reserve(ctx context.Context, memberID, sessionID uint64) (*ReserveResult, error) {
	var res *ReserveResult
	err := e.store.ExecTx(ctx, func(tx Tx) error {
		// Lock order: session first, then member.
		sess, err := tx.SessionForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		mem, err := tx.MemberForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		if _, err := tx.Reservation(ctx, memberID, sessionID); err == nil {
			return ErrAlreadyReserved
		} else if !errors.Is(err, ErrReservationNotFound) {
			return err
		}
		if mem.Credits <= 0 {
			return ErrInsufficientCredits
		}

		r := &model.Reservation{
			MemberID:   memberID,
			SessionID:  sessionID,
			ReservedAt: e.now().UTC(),
		}

		if sess.Full() {
			r.Status = model.StatusWaitlist
			if err := tx.InsertReservation(ctx, r); err != nil {
				return err
			}
			res = &ReserveResult{
				Outcome:     ReserveWaitlisted,
				Reservation: r,
				Session:     sess,
				Current:     sess.CurrentCapacity,
				Max:         sess.MaxCapacity,
			}
			return nil
		}

		from := WeekStart(sess.Date)
		n, err := tx.CountConfirmedInWindow(ctx, memberID, from, from.AddDate(0, 0, 7))
		if err != nil {
			return err
		}
		if n >= e.quotaFor(mem) {
			return ErrWeeklyQuotaExceeded
		}

		r.Status = model.StatusConfirmed
		if err := tx.InsertReservation(ctx, r); err != nil {
			return err
		}
		if err := tx.ClaimSeat(ctx, sessionID); err != nil {
			return err
		}
		if err := tx.DebitCredit(ctx, memberID); err != nil {
			return err
		}
		res = &ReserveResult{
			Outcome:     ReserveConfirmed,
			Reservation: r,
			Session:     sess,
			Current:     sess.CurrentCapacity + 1,
			Max:         sess.MaxCapacity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Cancel ends the member's active reservation for the session.  A
// missing reservation is a no-op, not an error.  Confirmed
// cancellations at least refundCutoff before the session start earn
// the credit back; later ones forfeit it.  Whenever a seat-holding
// reservation (confirmed or pending confirmation) is cancelled, the
// oldest waitlist entry is promoted to PENDING_CONFIRMATION in the
// same transaction; only when the waitlist is empty does the
// session's occupancy actually drop.
func (e *engine) Cancel(ctx context.Context, memberID, sessionID uint64) (*CancelResult, error) {
	var res *CancelResult
	err := e.store.ExecTx(ctx, func(tx Tx) error {
		sess, err := tx.SessionForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		r, err := tx.Reservation(ctx, memberID, sessionID)
		if errors.Is(err, ErrReservationNotFound) {
			res = &CancelResult{
				Outcome: CancelNothingToDo,
				Session: sess,
				Current: sess.CurrentCapacity,
				Max:     sess.MaxCapacity,
			}
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.DeleteReservation(ctx, r.ID); err != nil {
			return err
		}

		res = &CancelResult{
			Session: sess,
			Current: sess.CurrentCapacity,
			Max:     sess.MaxCapacity,
		}

		switch r.Status {
		case model.StatusWaitlist:
			// Leaving the waitlist never frees a confirmed seat.
			res.Outcome = CancelLeftWaitlist
			return nil
		case model.StatusConfirmed:
			res.Outcome = CancelNoRefund
			if sess.StartsAt().Sub(e.now().UTC()) >= refundCutoff {
				if err := tx.RefundCredit(ctx, memberID); err != nil {
					return err
				}
				res.Outcome = CancelRefunded
			}
		case model.StatusPendingConfirmation:
			// A promoted seat was never charged, so nothing to refund.
			res.Outcome = CancelReleasedPending
		}

		// The seat is vacated: hand it to the oldest waitlisted member,
		// or genuinely free it when nobody is queued.
		next, err := tx.OldestWaitlisted(ctx, sessionID)
		if errors.Is(err, ErrReservationNotFound) {
			if err := tx.ReleaseSeat(ctx, sessionID); err != nil {
				return err
			}
			res.Current = sess.CurrentCapacity - 1
			return nil
		}
		if err != nil {
			return err
		}
		promotedAt := e.now().UTC()
		if err := tx.PromoteReservation(ctx, next.ID, promotedAt); err != nil {
			return err
		}
		next.Status = model.StatusPendingConfirmation
		next.PromotedAt = &promotedAt
		res.Promoted = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ReservationStatus returns the member's active reservation for the
// session.  It is a plain read used to render booking-button state;
// ErrReservationNotFound means the member has no booking.
func (e *engine) ReservationStatus(ctx context.Context, memberID, sessionID uint64) (*model.Reservation, error) {
	return e.store.Reservation(ctx, memberID, sessionID)
}

// SessionOccupancy returns the session's current and maximum seat
// counts.
func (e *engine) SessionOccupancy(ctx context.Context, sessionID uint64) (uint32, uint32, error) {
	sess, err := e.store.Session(ctx, sessionID)
	if err != nil {
		return 0, 0, err
	}
	return sess.CurrentCapacity, sess.MaxCapacity, nil
}

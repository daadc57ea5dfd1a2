package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/novafit/gym-class-reservation/internal/booking"
	"github.com/novafit/gym-class-reservation/internal/model"
)

// Store provides all database access for the service.  It implements
// booking.Store for the engine and exposes the read/write queries the
// handlers need directly.  All timestamp columns are stored in UTC.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle, e.g. for health checks.
func (s *Store) DB() *sql.DB { return s.db }

var _ booking.Store = (*Store)(nil)

// ExecTx runs fn inside one transaction and commits it when fn
// returns nil.  MySQL deadlocks and lock wait timeouts surface as
// booking.ErrTransactionConflict so the caller can retry the whole
// request.
func (s *Store) ExecTx(ctx context.Context, fn func(booking.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&storeTx{tx: tx}); err != nil {
		return mapConflict(err)
	}
	if err := tx.Commit(); err != nil {
		return mapConflict(err)
	}
	committed = true
	return nil
}

// mapConflict rewrites retriable MySQL errors (1213 deadlock, 1205
// lock wait timeout) into the engine's conflict sentinel.
func mapConflict(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		if me.Number == 1213 || me.Number == 1205 {
			return booking.ErrTransactionConflict
		}
	}
	return err
}

// Session returns a session by id without locking it.
func (s *Store) Session(ctx context.Context, id uint64) (*model.ClassSession, error) {
	return scanSession(s.db.QueryRowContext(ctx, sessionSelect+` WHERE id = ?`, id))
}

// Member returns a member by id without locking it.
func (s *Store) Member(ctx context.Context, id uint64) (*model.Member, error) {
	return scanMember(s.db.QueryRowContext(ctx, memberSelect+` WHERE id = ?`, id))
}

// Reservation returns the member's active reservation for a session.
func (s *Store) Reservation(ctx context.Context, memberID, sessionID uint64) (*model.Reservation, error) {
	return scanReservation(s.db.QueryRowContext(ctx,
		reservationSelect+` WHERE member_id = ? AND session_id = ?`, memberID, sessionID))
}

// storeTx implements booking.Tx over an open *sql.Tx.  The engine is
// the only caller; it owns the transaction's lifetime via ExecTx.
type storeTx struct {
	tx *sql.Tx
}

var _ booking.Tx = (*storeTx)(nil)

// SessionForUpdate loads and locks the session row.  Concurrent
// claims against the same session serialize on this lock.
func (t *storeTx) SessionForUpdate(ctx context.Context, id uint64) (*model.ClassSession, error) {
	return scanSession(t.tx.QueryRowContext(ctx, sessionSelect+` WHERE id = ? FOR UPDATE`, id))
}

// MemberForUpdate loads and locks the member row.  Always taken
// after the session lock to keep a single lock order.
func (t *storeTx) MemberForUpdate(ctx context.Context, id uint64) (*model.Member, error) {
	return scanMember(t.tx.QueryRowContext(ctx, memberSelect+` WHERE id = ? FOR UPDATE`, id))
}

// Reservation returns the member's active reservation for a session.
func (t *storeTx) Reservation(ctx context.Context, memberID, sessionID uint64) (*model.Reservation, error) {
	return scanReservation(t.tx.QueryRowContext(ctx,
		reservationSelect+` WHERE member_id = ? AND session_id = ?`, memberID, sessionID))
}

// CountConfirmedInWindow counts confirmed reservations whose session
// date falls in [from, to).
func (t *storeTx) CountConfirmedInWindow(ctx context.Context, memberID uint64, from, to time.Time) (int, error) {
	const q = `SELECT COUNT(*)
	           FROM reservations r
	           JOIN class_sessions s ON s.id = r.session_id
	           WHERE r.member_id = ? AND r.status = ? AND s.session_date >= ? AND s.session_date < ?`
	var n int
	err := t.tx.QueryRowContext(ctx, q, memberID, model.StatusConfirmed,
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02")).Scan(&n)
	return n, err
}

// InsertReservation persists a new reservation and populates its
// generated ID.
func (t *storeTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	const q = `INSERT INTO reservations (member_id, session_id, status, reserved_at) VALUES (?, ?, ?, ?)`
	result, err := t.tx.ExecContext(ctx, q, r.MemberID, r.SessionID, r.Status,
		r.ReservedAt.UTC().Format("2006-01-02 15:04:05.000000"))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = uint64(id)
	return nil
}

// DeleteReservation removes a reservation row.
func (t *storeTx) DeleteReservation(ctx context.Context, id uint64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	return err
}

// OldestWaitlisted returns the earliest-queued waitlist entry for the
// session, locked for the promotion update.
func (t *storeTx) OldestWaitlisted(ctx context.Context, sessionID uint64) (*model.Reservation, error) {
	return scanReservation(t.tx.QueryRowContext(ctx,
		reservationSelect+` WHERE session_id = ? AND status = ?
		 ORDER BY reserved_at ASC, id ASC LIMIT 1 FOR UPDATE`,
		sessionID, model.StatusWaitlist))
}

// PromoteReservation moves a waitlist entry into the seat-holding
// PENDING_CONFIRMATION state.
func (t *storeTx) PromoteReservation(ctx context.Context, id uint64, promotedAt time.Time) error {
	const q = `UPDATE reservations SET status = ?, promoted_at = ? WHERE id = ?`
	_, err := t.tx.ExecContext(ctx, q, model.StatusPendingConfirmation,
		promotedAt.UTC().Format("2006-01-02 15:04:05.000000"), id)
	return err
}

// ClaimSeat bumps occupancy by one, guarded by max capacity.  The
// session row is already locked by the engine, so a miss here means
// the guard itself tripped; report it as a conflict rather than
// overbook.
func (t *storeTx) ClaimSeat(ctx context.Context, sessionID uint64) error {
	const q = `UPDATE class_sessions SET current_capacity = current_capacity + 1
	           WHERE id = ? AND current_capacity < max_capacity`
	result, err := t.tx.ExecContext(ctx, q, sessionID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrTransactionConflict
	}
	return nil
}

// ReleaseSeat drops occupancy by one, floored at zero.
func (t *storeTx) ReleaseSeat(ctx context.Context, sessionID uint64) error {
	const q = `UPDATE class_sessions SET current_capacity = current_capacity - 1
	           WHERE id = ? AND current_capacity > 0`
	_, err := t.tx.ExecContext(ctx, q, sessionID)
	return err
}

// DebitCredit takes one credit, refusing to drive the balance
// negative.
func (t *storeTx) DebitCredit(ctx context.Context, memberID uint64) error {
	const q = `UPDATE members SET credits = credits - 1 WHERE id = ? AND credits > 0`
	result, err := t.tx.ExecContext(ctx, q, memberID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrInsufficientCredits
	}
	return nil
}

// RefundCredit returns one credit to the member.
func (t *storeTx) RefundCredit(ctx context.Context, memberID uint64) error {
	const q = `UPDATE members SET credits = credits + 1 WHERE id = ?`
	result, err := t.tx.ExecContext(ctx, q, memberID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrMemberNotFound
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/novafit/gym-class-reservation/internal/booking"
	"github.com/novafit/gym-class-reservation/internal/model"
)

const memberSelect = `SELECT id, full_name, email, cohort, credits, weekly_quota, created_at, updated_at
	FROM members`

func scanMember(row rowScanner) (*model.Member, error) {
	var m model.Member
	var quota sql.NullInt64
	err := row.Scan(&m.ID, &m.FullName, &m.Email, &m.Group, &m.Credits, &quota,
		&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	if quota.Valid {
		q := uint32(quota.Int64)
		m.WeeklyQuota = &q
	}
	return &m, nil
}

// InsertMember creates a member row and populates the generated ID.
func (s *Store) InsertMember(ctx context.Context, m *model.Member) error {
	const q = `INSERT INTO members (full_name, email, cohort, credits, weekly_quota) VALUES (?, ?, ?, ?, ?)`
	var quota interface{}
	if m.WeeklyQuota != nil {
		quota = *m.WeeklyQuota
	}
	result, err := s.db.ExecContext(ctx, q, m.FullName, m.Email, m.Group, m.Credits, quota)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GrantCredits adds amount credits to the member's balance.  This is
// the only credit write outside the engine's settlement; top-ups are
// sold elsewhere and recorded here by staff.
func (s *Store) GrantCredits(ctx context.Context, memberID uint64, amount uint32) error {
	const q = `UPDATE members SET credits = credits + ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, q, amount, memberID)
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

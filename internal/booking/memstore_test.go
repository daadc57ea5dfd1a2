package booking_test

import (
	"context"
	"sync"
	"time"

	"github.com/novafit/gym-class-reservation/internal/booking"
	"github.com/novafit/gym-class-reservation/internal/model"
)

// memStore is an in-memory booking.Store used to exercise the engine
// without a database.  Every ExecTx snapshots state up front and
// restores it when fn fails, mirroring a rolled-back transaction.
type memStore struct {
	mu           sync.Mutex
	sessions     map[uint64]*model.ClassSession
	members      map[uint64]*model.Member
	reservations map[uint64]*model.Reservation
	nextID       uint64
}

func newMemStore() *memStore {
	return &memStore{
		sessions:     make(map[uint64]*model.ClassSession),
		members:      make(map[uint64]*model.Member),
		reservations: make(map[uint64]*model.Reservation),
	}
}

func (s *memStore) addSession(group string, day time.Time, start string, max, current uint32) *model.ClassSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sess := &model.ClassSession{
		ID:              s.nextID,
		Group:           group,
		Date:            day,
		StartTime:       start,
		EndTime:         "23:59",
		MaxCapacity:     max,
		CurrentCapacity: current,
	}
	s.sessions[sess.ID] = sess
	return sess
}

func (s *memStore) addMember(credits int32, quota *uint32) *model.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m := &model.Member{
		ID:          s.nextID,
		FullName:    "Test Member",
		Email:       "member@example.com",
		Credits:     credits,
		WeeklyQuota: quota,
	}
	s.members[m.ID] = m
	return m
}

func (s *memStore) addReservation(memberID, sessionID uint64, status model.ReservationStatus, reservedAt time.Time) *model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r := &model.Reservation{
		ID:         s.nextID,
		MemberID:   memberID,
		SessionID:  sessionID,
		Status:     status,
		ReservedAt: reservedAt,
	}
	s.reservations[r.ID] = r
	return r
}

func (s *memStore) snapshot() (map[uint64]*model.ClassSession, map[uint64]*model.Member, map[uint64]*model.Reservation) {
	sessions := make(map[uint64]*model.ClassSession, len(s.sessions))
	for id, v := range s.sessions {
		cp := *v
		sessions[id] = &cp
	}
	members := make(map[uint64]*model.Member, len(s.members))
	for id, v := range s.members {
		cp := *v
		members[id] = &cp
	}
	reservations := make(map[uint64]*model.Reservation, len(s.reservations))
	for id, v := range s.reservations {
		cp := *v
		reservations[id] = &cp
	}
	return sessions, members, reservations
}

func (s *memStore) ExecTx(ctx context.Context, fn func(booking.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, members, reservations := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.sessions, s.members, s.reservations = sessions, members, reservations
		return err
	}
	return nil
}

func (s *memStore) Session(ctx context.Context, id uint64) (*model.ClassSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session(id)
}

func (s *memStore) Member(ctx context.Context, id uint64) (*model.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.member(id)
}

func (s *memStore) Reservation(ctx context.Context, memberID, sessionID uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservation(memberID, sessionID)
}

func (s *memStore) session(id uint64) (*model.ClassSession, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, booking.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *memStore) member(id uint64) (*model.Member, error) {
	m, ok := s.members[id]
	if !ok {
		return nil, booking.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) reservation(memberID, sessionID uint64) (*model.Reservation, error) {
	for _, r := range s.reservations {
		if r.MemberID == memberID && r.SessionID == sessionID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, booking.ErrReservationNotFound
}

// memTx runs against the store's maps directly; ExecTx already holds
// the lock and handles rollback.
type memTx struct {
	s *memStore
}

func (t *memTx) SessionForUpdate(ctx context.Context, id uint64) (*model.ClassSession, error) {
	return t.s.session(id)
}

func (t *memTx) MemberForUpdate(ctx context.Context, id uint64) (*model.Member, error) {
	return t.s.member(id)
}

func (t *memTx) Reservation(ctx context.Context, memberID, sessionID uint64) (*model.Reservation, error) {
	return t.s.reservation(memberID, sessionID)
}

func (t *memTx) CountConfirmedInWindow(ctx context.Context, memberID uint64, from, to time.Time) (int, error) {
	n := 0
	for _, r := range t.s.reservations {
		if r.MemberID != memberID || r.Status != model.StatusConfirmed {
			continue
		}
		sess, ok := t.s.sessions[r.SessionID]
		if !ok {
			continue
		}
		if !sess.Date.Before(from) && sess.Date.Before(to) {
			n++
		}
	}
	return n, nil
}

func (t *memTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	t.s.nextID++
	r.ID = t.s.nextID
	cp := *r
	t.s.reservations[r.ID] = &cp
	return nil
}

func (t *memTx) DeleteReservation(ctx context.Context, id uint64) error {
	delete(t.s.reservations, id)
	return nil
}

func (t *memTx) OldestWaitlisted(ctx context.Context, sessionID uint64) (*model.Reservation, error) {
	var oldest *model.Reservation
	for _, r := range t.s.reservations {
		if r.SessionID != sessionID || r.Status != model.StatusWaitlist {
			continue
		}
		if oldest == nil || r.ReservedAt.Before(oldest.ReservedAt) ||
			(r.ReservedAt.Equal(oldest.ReservedAt) && r.ID < oldest.ID) {
			oldest = r
		}
	}
	if oldest == nil {
		return nil, booking.ErrReservationNotFound
	}
	cp := *oldest
	return &cp, nil
}

func (t *memTx) PromoteReservation(ctx context.Context, id uint64, promotedAt time.Time) error {
	r, ok := t.s.reservations[id]
	if !ok {
		return booking.ErrReservationNotFound
	}
	r.Status = model.StatusPendingConfirmation
	r.PromotedAt = &promotedAt
	return nil
}

func (t *memTx) ClaimSeat(ctx context.Context, sessionID uint64) error {
	sess, ok := t.s.sessions[sessionID]
	if !ok {
		return booking.ErrSessionNotFound
	}
	if sess.CurrentCapacity >= sess.MaxCapacity {
		return booking.ErrTransactionConflict
	}
	sess.CurrentCapacity++
	return nil
}

func (t *memTx) ReleaseSeat(ctx context.Context, sessionID uint64) error {
	sess, ok := t.s.sessions[sessionID]
	if !ok {
		return booking.ErrSessionNotFound
	}
	if sess.CurrentCapacity > 0 {
		sess.CurrentCapacity--
	}
	return nil
}

func (t *memTx) DebitCredit(ctx context.Context, memberID uint64) error {
	m, ok := t.s.members[memberID]
	if !ok {
		return booking.ErrMemberNotFound
	}
	if m.Credits <= 0 {
		return booking.ErrInsufficientCredits
	}
	m.Credits--
	return nil
}

func (t *memTx) RefundCredit(ctx context.Context, memberID uint64) error {
	m, ok := t.s.members[memberID]
	if !ok {
		return booking.ErrMemberNotFound
	}
	m.Credits++
	return nil
}

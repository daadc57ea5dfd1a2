package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novafit/gym-class-reservation/internal/booking"
	"github.com/novafit/gym-class-reservation/internal/model"
)

// The reference clock is a Wednesday morning; sessions placed on
// testDay with a later start time are still open for refunds.
var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

var testDay = date(2026, 3, 4)

func newTestEngine(s *memStore, opts ...booking.Option) booking.Engine {
	opts = append([]booking.Option{booking.WithClock(func() time.Time { return testNow })}, opts...)
	return booking.NewEngine(s, opts...)
}

func TestReserveConfirmsAndChargesOneCredit(t *testing.T) {
	s := newMemStore()
	sess := s.addSession("beginners", testDay, "12:00", 10, 0)
	mem := s.addMember(5, nil)
	eng := newTestEngine(s)

	res, err := eng.Reserve(context.Background(), mem.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ReserveConfirmed, res.Outcome)
	assert.Equal(t, model.StatusConfirmed, res.Reservation.Status)
	assert.Equal(t, uint32(1), res.Current)
	assert.Equal(t, uint32(10), res.Max)

	got, err := s.Member(context.Background(), mem.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(4), got.Credits)

	updated, err := s.Session(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), updated.CurrentCapacity)
}

func TestReserveFullSessionJoinsWaitlistWithoutCharge(t *testing.T) {
	s := newMemStore()
	sess := s.addSession("beginners", testDay, "12:00", 2, 2)
	mem := s.addMember(5, nil)
	eng := newTestEngine(s)

	res, err := eng.Reserve(context.Background(), mem.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ReserveWaitlisted, res.Outcome)
	assert.Equal(t, model.StatusWaitlist, res.Reservation.Status)
	assert.Equal(t, uint32(2), res.Current)

	got, err := s.Member(context.Background(), mem.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(5), got.Credits, "waitlist entries cost nothing")

	updated, err := s.Session(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), updated.CurrentCapacity)
}

func TestReserveRejectsZeroCreditBalance(t *testing.T) {
	s := newMemStore()
	open := s.addSession("beginners", testDay, "12:00", 10, 0)
	full := s.addSession("beginners", testDay, "13:00", 1, 1)
	mem := s.addMember(0, nil)
	eng := newTestEngine(s)

	_, err := eng.Reserve(context.Background(), mem.ID, open.ID)
	assert.ErrorIs(t, err, booking.ErrInsufficientCredits)

	// A positive balance is required even to queue.
	_, err = eng.Reserve(context.Background(), mem.ID, full.ID)
	assert.ErrorIs(t, err, booking.ErrInsufficientCredits)
}

func TestReserveRejectsDuplicateBooking(t *testing.T) {
	s := newMemStore()
	sess := s.addSession("beginners", testDay, "12:00", 10, 0)
	mem := s.addMember(5, nil)
	eng := newTestEngine(s)

	_, err := eng.Reserve(context.Background(), mem.ID, sess.ID)
	require.NoError(t, err)
	_, err = eng.Reserve(context.Background(), mem.ID, sess.ID)
	assert.ErrorIs(t, err, booking.ErrAlreadyReserved)

	got, err := s.Member(context.Background(), mem.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(4), got.Credits, "rejected retry must not charge again")
}

func TestReserveUnknownIDs(t *testing.T) {
	s := newMemStore()
	sess := s.addSession("beginners", testDay, "12:00", 10, 0)
	mem := s.addMember(5, nil)
	eng := newTestEngine(s)

	_, err := eng.Reserve(context.Background(), mem.ID, 9999)
	assert.ErrorIs(t, err, booking.ErrSessionNotFound)
	_, err = eng.Reserve(context.Background(), 9999, sess.ID)
	assert.ErrorIs(t, err, booking.ErrMemberNotFound)
}

func TestReserveEnforcesWeeklyQuota(t *testing.T) {
	s := newMemStore()
	mon := s.addSession("beginners", date(2026, 3, 2), "12:00", 10, 0)
	wed := s.addSession("beginners", date(2026, 3, 4), "12:00", 10, 0)
	sun := s.addSession("beginners", date(2026, 3, 8), "12:00", 10, 0)
	nextMon := s.addSession("beginners", date(2026, 3, 9), "12:00", 10, 0)
	mem := s.addMember(10, nil)
	eng := newTestEngine(s)

	ctx := context.Background()
	_, err := eng.Reserve(ctx, mem.ID, mon.ID)
	require.NoError(t, err)
	_, err = eng.Reserve(ctx, mem.ID, wed.ID)
	require.NoError(t, err)

	// Sunday shares the week that began the previous Monday.
	_, err = eng.Reserve(ctx, mem.ID, sun.ID)
	assert.ErrorIs(t, err, booking.ErrWeeklyQuotaExceeded)

	// The following Monday opens a fresh window.
	res, err := eng.Reserve(ctx, mem.ID, nextMon.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ReserveConfirmed, res.Outcome)
}

func TestReservePerMemberQuotaOverride(t *testing.T) {
	s := newMemStore()
	first := s.addSession("beginners", date(2026, 3, 2), "12:00", 10, 0)
	second := s.addSession("beginners", date(2026, 3, 4), "12:00", 10, 0)
	one := uint32(1)
	mem := s.addMember(10, &one)
	eng := newTestEngine(s)

	ctx := context.Background()
	_, err := eng.Reserve(ctx, mem.ID, first.ID)
	require.NoError(t, err)
	_, err = eng.Reserve(ctx, mem.ID, second.ID)
	assert.ErrorIs(t, err, booking.ErrWeeklyQuotaExceeded)
}

func TestReserveWaitlistExemptFromQuota(t *testing.T) {
	s := newMemStore()
	mon := s.addSession("beginners", date(2026, 3, 2), "12:00", 10, 0)
	wed := s.addSession("beginners", date(2026, 3, 4), "12:00", 10, 0)
	full := s.addSession("beginners", date(2026, 3, 6), "12:00", 1, 1)
	mem := s.addMember(10, nil)
	eng := newTestEngine(s)

	ctx := context.Background()
	_, err := eng.Reserve(ctx, mem.ID, mon.ID)
	require.NoError(t, err)
	_, err = eng.Reserve(ctx, mem.ID, wed.ID)
	require.NoError(t, err)

	// At quota, but a full session still accepts the member as a
	// waitlist entry.
	res, err := eng.Reserve(ctx, mem.ID, full.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ReserveWaitlisted, res.Outcome)
}

func TestCancelRefundsBeforeCutoff(t *testing.T) {
	s := newMemStore()
	sess := s.addSession("beginners", testDay, "12:00", 10, 0) // starts 2h after testNow
	mem := s.addMember(5, nil)
	eng := newTestEngine(s)

	ctx := context.Background()
	_, err := eng.Reserve(ctx, mem.ID, sess.ID)
	require.NoError(t, err)

	res, err := eng.Cancel(ctx, mem.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.CancelRefunded, res.Outcome)
	assert.Equal(t, uint32(0), res.Current)
	assert.Nil(t, res.Promoted)

	got, err := s.Member(ctx, mem.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(5), got.Credits)

	_, err = eng.ReservationStatus(ctx, mem.ID, sess.ID)
	assert.ErrorIs(t, err, booking.ErrReservationNotFound)
}

func TestCancelForfeitsCreditInsideCutoff(t *testing.T) {
	s := newMemStore()
	sess := s.addSession("beginners", testDay, "10:30", 10, 0) // 30m after testNow
	mem := s.addMember(5, nil)
	eng := newTestEngine(s)

	ctx := context.Background()
	_, err := eng.Reserve(ctx, mem.ID, sess.ID)
	require.NoError(t, err)

	res, err := eng.Cancel(ctx, mem.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.CancelNoRefund, res.Outcome)
	assert.Equal(t, uint32(0), res.Current)

	got, err := s.Member(ctx, mem.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(4), got.Credits)
}

func TestCancelRefundExactlyAtCutoff(t *testing.T) {
	s := newMemStore()
	sess := s.addSession("beginners", testDay, "11:00", 10, 0) // exactly 1h after testNow
	mem := s.addMember(5, nil)
	eng := newTestEngine(s)

	ctx := context.Background()
	_, err := eng.Reserve(ctx, mem.ID, sess.ID)
	require.NoError(t, err)

	res, err := eng.Cancel(ctx, mem.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.CancelRefunded, res.Outcome, "the cutoff itself still refunds")
}

func TestCancelPromotesOldestWaitlisted(t *testing.T) {
	s := newMemStore()
	sess := s.addSession("beginners", testDay, "12:00", 1, 1)
	holder := s.addMember(5, nil)
	s.addReservation(holder.ID, sess.ID, model.StatusConfirmed, testNow.Add(-2*time.Hour))
	late := s.addMember(5, nil)
	early := s.addMember(5, nil)
	s.addReservation(late.ID, sess.ID, model.StatusWaitlist, testNow.Add(-30*time.Minute))
	s.addReservation(early.ID, sess.ID, model.StatusWaitlist, testNow.Add(-time.Hour))
	eng := newTestEngine(s)

	ctx := context.Background()
	res, err := eng.Cancel(ctx, holder.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.CancelRefunded, res.Outcome)
	require.NotNil(t, res.Promoted)
	assert.Equal(t, early.ID, res.Promoted.MemberID, "queue order is reservation time")
	assert.Equal(t, model.StatusPendingConfirmation, res.Promoted.Status)
	require.NotNil(t, res.Promoted.PromotedAt)
	assert.Equal(t, testNow, *res.Promoted.PromotedAt)

	// The promoted member inherits the seat, so occupancy holds.
	assert.Equal(t, uint32(1), res.Current)
	updated, err := s.Session(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), updated.CurrentCapacity)

	promoted, err := eng.ReservationStatus(ctx, early.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingConfirmation, promoted.Status)
}

func TestCancelPendingReleasesWithoutRefund(t *testing.T) {
	s := newMemStore()
	sess := s.addSession("beginners", testDay, "12:00", 1, 1)
	mem := s.addMember(3, nil)
	r := s.addReservation(mem.ID, sess.ID, model.StatusPendingConfirmation, testNow.Add(-time.Hour))
	promotedAt := testNow.Add(-10 * time.Minute)
	r.PromotedAt = &promotedAt
	eng := newTestEngine(s)

	ctx := context.Background()
	res, err := eng.Cancel(ctx, mem.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.CancelReleasedPending, res.Outcome)
	assert.Equal(t, uint32(0), res.Current, "nobody queued, so the seat frees up")

	got, err := s.Member(ctx, mem.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(3), got.Credits, "a promoted seat was never charged")
}

func TestCancelWaitlistEntryKeepsOccupancy(t *testing.T) {
	s := newMemStore()
	sess := s.addSession("beginners", testDay, "12:00", 1, 1)
	mem := s.addMember(5, nil)
	s.addReservation(mem.ID, sess.ID, model.StatusWaitlist, testNow.Add(-time.Hour))
	eng := newTestEngine(s)

	ctx := context.Background()
	res, err := eng.Cancel(ctx, mem.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.CancelLeftWaitlist, res.Outcome)
	assert.Equal(t, uint32(1), res.Current)

	got, err := s.Member(ctx, mem.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(5), got.Credits)
}

func TestCancelWithoutReservationIsNoOp(t *testing.T) {
	s := newMemStore()
	sess := s.addSession("beginners", testDay, "12:00", 10, 3)
	mem := s.addMember(5, nil)
	eng := newTestEngine(s)

	res, err := eng.Cancel(context.Background(), mem.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.CancelNothingToDo, res.Outcome)
	assert.Equal(t, uint32(3), res.Current)
}

func TestPromotedSeatFillsBeforeNextReserve(t *testing.T) {
	// Scenario: full class, one waitlister, the seat holder cancels.
	// The waitlister takes the seat, so a newcomer still finds the
	// class full and queues.
	s := newMemStore()
	sess := s.addSession("beginners", testDay, "12:00", 1, 1)
	holder := s.addMember(5, nil)
	s.addReservation(holder.ID, sess.ID, model.StatusConfirmed, testNow.Add(-2*time.Hour))
	waiter := s.addMember(5, nil)
	s.addReservation(waiter.ID, sess.ID, model.StatusWaitlist, testNow.Add(-time.Hour))
	newcomer := s.addMember(5, nil)
	eng := newTestEngine(s)

	ctx := context.Background()
	_, err := eng.Cancel(ctx, holder.ID, sess.ID)
	require.NoError(t, err)

	res, err := eng.Reserve(ctx, newcomer.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ReserveWaitlisted, res.Outcome)
}

func TestWithDefaultQuotaOption(t *testing.T) {
	s := newMemStore()
	first := s.addSession("beginners", date(2026, 3, 2), "12:00", 10, 0)
	second := s.addSession("beginners", date(2026, 3, 4), "12:00", 10, 0)
	mem := s.addMember(10, nil)
	eng := newTestEngine(s, booking.WithDefaultQuota(1))

	ctx := context.Background()
	_, err := eng.Reserve(ctx, mem.ID, first.ID)
	require.NoError(t, err)
	_, err = eng.Reserve(ctx, mem.ID, second.ID)
	assert.ErrorIs(t, err, booking.ErrWeeklyQuotaExceeded)
}

func TestSessionOccupancy(t *testing.T) {
	s := newMemStore()
	sess := s.addSession("beginners", testDay, "12:00", 12, 7)
	eng := newTestEngine(s)

	current, max, err := eng.SessionOccupancy(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), current)
	assert.Equal(t, uint32(12), max)

	_, _, err = eng.SessionOccupancy(context.Background(), 9999)
	assert.ErrorIs(t, err, booking.ErrSessionNotFound)
}

func TestFailedReserveLeavesNoTrace(t *testing.T) {
	s := newMemStore()
	mon := s.addSession("beginners", date(2026, 3, 2), "12:00", 10, 0)
	wed := s.addSession("beginners", date(2026, 3, 4), "12:00", 10, 0)
	fri := s.addSession("beginners", date(2026, 3, 6), "12:00", 10, 0)
	mem := s.addMember(10, nil)
	eng := newTestEngine(s)

	ctx := context.Background()
	_, err := eng.Reserve(ctx, mem.ID, mon.ID)
	require.NoError(t, err)
	_, err = eng.Reserve(ctx, mem.ID, wed.ID)
	require.NoError(t, err)
	_, err = eng.Reserve(ctx, mem.ID, fri.ID)
	require.ErrorIs(t, err, booking.ErrWeeklyQuotaExceeded)

	got, err := s.Member(ctx, mem.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(8), got.Credits)
	_, err = s.Reservation(ctx, mem.ID, fri.ID)
	assert.ErrorIs(t, err, booking.ErrReservationNotFound)
	updated, err := s.Session(ctx, fri.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), updated.CurrentCapacity)
}

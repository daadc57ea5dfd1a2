// Package handler contains the HTTP layer: thin echo handlers that
// parse requests, call the booking engine or the store, and translate
// sentinel errors into JSON responses.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/novafit/gym-class-reservation/internal/booking"
	"github.com/novafit/gym-class-reservation/internal/middleware"
	"github.com/novafit/gym-class-reservation/internal/model"
	"github.com/novafit/gym-class-reservation/internal/queue"
	publisher "github.com/novafit/gym-class-reservation/internal/service"
)

// ReservationHandler serves the member-facing booking endpoints.  All
// state transitions go through the engine; the handler only maps
// transport concerns.  Publish is swappable so tests do not need a
// broker.
type ReservationHandler struct {
	Engine  booking.Engine
	RDB     *redis.Client
	Publish func(ctx context.Context, ev queue.ReservationEvent) error
}

// NewReservationHandler constructs a ReservationHandler wired to the
// RabbitMQ publisher.
func NewReservationHandler(engine booking.Engine, rdb *redis.Client) *ReservationHandler {
	if engine == nil {
		panic("nil engine passed to NewReservationHandler")
	}
	return &ReservationHandler{
		Engine:  engine,
		RDB:     rdb,
		Publish: publisher.PublishReservationEvent,
	}
}

// Reserve handles POST /v1/sessions/:id/reserve.  It books a seat for
// the calling member, or queues them when the session is full.
// Returns 201 with the settled status, 404 for unknown ids and 409
// for every member-recoverable refusal (no credits, weekly limit,
// duplicate booking) or a retriable conflict.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	memberID, ok := middleware.MemberID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	res, err := h.Engine.Reserve(ctx, memberID, sessionID)
	if err != nil {
		return bookingError(c, err)
	}

	h.notify(ctx, reserveEventType(res.Outcome), res.Reservation.ID, memberID, res.Session, res.Current, res.Max, false)
	middleware.BumpScheduleVersion(ctx, h.RDB)

	return c.JSON(http.StatusCreated, echo.Map{
		"status":         string(res.Outcome),
		"reservation_id": res.Reservation.ID,
		"occupancy":      echo.Map{"current": res.Current, "max": res.Max},
	})
}

// Cancel handles DELETE /v1/sessions/:id/reservation.  It ends the
// member's booking for the session; a missing booking is a no-op, not
// an error.  The response says whether a credit was refunded and
// whether a waitlisted member was promoted into the seat.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	memberID, ok := middleware.MemberID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	res, err := h.Engine.Cancel(ctx, memberID, sessionID)
	if err != nil {
		return bookingError(c, err)
	}

	if res.Outcome == booking.CancelNothingToDo {
		return c.JSON(http.StatusOK, echo.Map{"status": string(res.Outcome)})
	}

	refunded := res.Outcome == booking.CancelRefunded
	if res.Promoted != nil {
		h.notify(ctx, queue.EventPromoted, res.Promoted.ID, res.Promoted.MemberID, res.Session, res.Current, res.Max, false)
	} else if res.Outcome != booking.CancelLeftWaitlist {
		h.notify(ctx, queue.EventReleased, 0, memberID, res.Session, res.Current, res.Max, false)
	}
	h.notify(ctx, queue.EventCancelled, 0, memberID, res.Session, res.Current, res.Max, refunded)
	middleware.BumpScheduleVersion(ctx, h.RDB)

	body := echo.Map{
		"status":    string(res.Outcome),
		"refunded":  refunded,
		"occupancy": echo.Map{"current": res.Current, "max": res.Max},
	}
	if res.Promoted != nil {
		body["promoted_member_id"] = res.Promoted.MemberID
	}
	return c.JSON(http.StatusOK, body)
}

// GetReservationStatus handles GET /v1/sessions/:id/reservation.  It
// is a read-only endpoint for rendering booking-button state; a
// member with no booking gets {"status":"none"}.
func (h *ReservationHandler) GetReservationStatus(c echo.Context) error {
	memberID, ok := middleware.MemberID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	r, err := h.Engine.ReservationStatus(c.Request().Context(), memberID, sessionID)
	if errors.Is(err, booking.ErrReservationNotFound) {
		return c.JSON(http.StatusOK, echo.Map{"status": "none"})
	}
	if err != nil {
		return bookingError(c, err)
	}
	body := echo.Map{
		"status":         string(r.Status),
		"reservation_id": r.ID,
		"reserved_at":    r.ReservedAt.UTC().Format(time.RFC3339),
	}
	if r.PromotedAt != nil {
		body["promoted_at"] = r.PromotedAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, body)
}

// GetOccupancy handles GET /v1/sessions/:id/occupancy.
func (h *ReservationHandler) GetOccupancy(c echo.Context) error {
	sessionID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	current, max, err := h.Engine.SessionOccupancy(c.Request().Context(), sessionID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"current": current, "max": max})
}

// notify publishes one lifecycle event.  Publishing is best-effort;
// the booking already committed, so failures are only logged.
func (h *ReservationHandler) notify(ctx context.Context, eventType string, reservationID, memberID uint64, sess *model.ClassSession, current, max uint32, refunded bool) {
	if h.Publish == nil || sess == nil {
		return
	}
	_ = h.Publish(ctx, queue.ReservationEvent{
		Type:          eventType,
		ReservationID: reservationID,
		MemberID:      memberID,
		SessionID:     sess.ID,
		Group:         sess.Group,
		SessionDate:   sess.Date.UTC().Format("2006-01-02"),
		StartTime:     sess.StartTime,
		Current:       current,
		Max:           max,
		Refunded:      refunded,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	})
}

func reserveEventType(out booking.ReserveOutcome) string {
	if out == booking.ReserveWaitlisted {
		return queue.EventWaitlisted
	}
	return queue.EventConfirmed
}

// parseID parses a positive numeric path parameter.
func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// bookingError translates engine sentinels into JSON responses.
// Member-recoverable refusals and retriable conflicts map to 409,
// unknown ids to 404, everything else to a generic 500.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrSessionNotFound),
		errors.Is(err, booking.ErrMemberNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrWeeklyQuotaExceeded):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": err.Error(),
			"hint":  "waitlist entries do not count against the weekly limit",
		})
	case errors.Is(err, booking.ErrInsufficientCredits),
		errors.Is(err, booking.ErrAlreadyReserved),
		errors.Is(err, booking.ErrTransactionConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}

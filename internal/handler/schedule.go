package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/novafit/gym-class-reservation/internal/booking"
	"github.com/novafit/gym-class-reservation/internal/middleware"
	"github.com/novafit/gym-class-reservation/internal/model"
	"github.com/novafit/gym-class-reservation/internal/repository"
)

// ScheduleHandler serves the catalog views: the weekly schedule and a
// member's own profile and booking list.  DefaultQuota mirrors the
// engine's configured weekly limit so profile responses report the
// value actually enforced.
type ScheduleHandler struct {
	Store        *repository.Store
	DefaultQuota int
}

func NewScheduleHandler(store *repository.Store, defaultQuota int) *ScheduleHandler {
	if defaultQuota <= 0 {
		defaultQuota = booking.DefaultWeeklyQuota
	}
	return &ScheduleHandler{Store: store, DefaultQuota: defaultQuota}
}

// scheduleItem is one schedule row.  my_status is only present when
// the caller identified themselves.
type scheduleItem struct {
	ID          uint64          `json:"id"`
	Group       string          `json:"group"`
	Date        string          `json:"date"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	Current     uint32          `json:"current"`
	Max         uint32          `json:"max"`
	Full        bool            `json:"full"`
	WorkoutPlan json.RawMessage `json:"workout_plan,omitempty"`
	MyStatus    string          `json:"my_status,omitempty"`
}

// GetSchedule handles GET /v1/schedule?week=YYYY-MM-DD&group=X.  The
// week parameter may be any date inside the wanted week; it snaps to
// that week's Monday.  Without it the current week is shown.
func (h *ScheduleHandler) GetSchedule(c echo.Context) error {
	anchor := time.Now().UTC()
	if raw := c.QueryParam("week"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "week must be YYYY-MM-DD"})
		}
		anchor = parsed
	}
	from := booking.WeekStart(anchor)
	to := booking.NextWeekStart(anchor)

	ctx := c.Request().Context()
	sessions, err := h.Store.SessionsInRange(ctx, from, to, c.QueryParam("group"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var statuses map[uint64]model.ReservationStatus
	if memberID, ok := middleware.MemberID(c); ok {
		statuses, err = h.Store.StatusesByMember(ctx, memberID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	items := make([]scheduleItem, 0, len(sessions))
	for _, s := range sessions {
		it := scheduleItem{
			ID:          s.ID,
			Group:       s.Group,
			Date:        s.Date.UTC().Format("2006-01-02"),
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			Current:     s.CurrentCapacity,
			Max:         s.MaxCapacity,
			Full:        s.Full(),
			WorkoutPlan: s.WorkoutPlan,
		}
		if st, ok := statuses[s.ID]; ok {
			it.MyStatus = string(st)
		}
		items = append(items, it)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"week_start": from.Format("2006-01-02"),
		"sessions":   items,
	})
}

// GetMember handles GET /v1/members/:id.  It returns the member's
// profile with the current credit balance and the weekly limit in
// force for them.
func (h *ScheduleHandler) GetMember(c echo.Context) error {
	memberID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	m, err := h.Store.Member(c.Request().Context(), memberID)
	if errors.Is(err, booking.ErrMemberNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	quota := uint32(h.DefaultQuota)
	if m.WeeklyQuota != nil {
		quota = *m.WeeklyQuota
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":           m.ID,
		"full_name":    m.FullName,
		"email":        m.Email,
		"group":        m.Group,
		"credits":      m.Credits,
		"weekly_quota": quota,
	})
}

// GetMemberReservations handles GET /v1/members/:id/reservations.
func (h *ScheduleHandler) GetMemberReservations(c echo.Context) error {
	memberID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	items, err := h.Store.ReservationsByMember(c.Request().Context(), memberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}

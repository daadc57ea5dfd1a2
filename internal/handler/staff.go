package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/novafit/gym-class-reservation/internal/booking"
	"github.com/novafit/gym-class-reservation/internal/middleware"
	"github.com/novafit/gym-class-reservation/internal/model"
	"github.com/novafit/gym-class-reservation/internal/repository"
)

// StaffHandler serves the back-office endpoints: session catalog
// management, member onboarding and credit top-ups.
type StaffHandler struct {
	Store *repository.Store
	RDB   *redis.Client
}

func NewStaffHandler(store *repository.Store, rdb *redis.Client) *StaffHandler {
	return &StaffHandler{Store: store, RDB: rdb}
}

type sessionRequest struct {
	Group       string          `json:"group"`
	Date        string          `json:"date"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	MaxCapacity uint32          `json:"max_capacity"`
	WorkoutPlan json.RawMessage `json:"workout_plan"`
}

// toModel validates the request and builds a session.  Times use the
// 24h HH:MM form and the class must end after it starts.
func (r *sessionRequest) toModel() (*model.ClassSession, error) {
	if r.Group == "" {
		return nil, errors.New("group is required")
	}
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return nil, errors.New("date must be YYYY-MM-DD")
	}
	start, err := time.Parse("15:04", r.StartTime)
	if err != nil {
		return nil, errors.New("start_time must be HH:MM")
	}
	end, err := time.Parse("15:04", r.EndTime)
	if err != nil {
		return nil, errors.New("end_time must be HH:MM")
	}
	if !end.After(start) {
		return nil, errors.New("end_time must be after start_time")
	}
	if r.MaxCapacity < 1 {
		return nil, errors.New("max_capacity must be at least 1")
	}
	if len(r.WorkoutPlan) > 0 && !json.Valid(r.WorkoutPlan) {
		return nil, errors.New("workout_plan must be valid JSON")
	}
	return &model.ClassSession{
		Group:       r.Group,
		Date:        date.UTC(),
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		MaxCapacity: r.MaxCapacity,
		WorkoutPlan: r.WorkoutPlan,
	}, nil
}

// CreateSession handles POST /v1/staff/sessions.
func (h *StaffHandler) CreateSession(c echo.Context) error {
	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	sess, err := req.toModel()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx := c.Request().Context()
	if err := h.Store.InsertSession(ctx, sess); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	middleware.BumpScheduleVersion(ctx, h.RDB)
	return c.JSON(http.StatusCreated, echo.Map{"id": sess.ID})
}

// UpdateSession handles PUT /v1/staff/sessions/:id.  Shrinking a
// session below its current occupancy is refused; booked members keep
// their seats.
func (h *StaffHandler) UpdateSession(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	sess, err := req.toModel()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	sess.ID = id
	ctx := c.Request().Context()
	switch err := h.Store.UpdateSession(ctx, sess); {
	case errors.Is(err, booking.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrCapacityBelowOccupancy):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	middleware.BumpScheduleVersion(ctx, h.RDB)
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}

// GetRoster handles GET /v1/staff/sessions/:id/roster.  Seat holders
// first, then the waitlist in promotion order.
func (h *StaffHandler) GetRoster(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	sess, err := h.Store.Session(ctx, id)
	if errors.Is(err, booking.ErrSessionNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	roster, err := h.Store.SessionRoster(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session_id": sess.ID,
		"occupancy":  echo.Map{"current": sess.CurrentCapacity, "max": sess.MaxCapacity},
		"roster":     roster,
	})
}

type memberRequest struct {
	FullName    string  `json:"full_name"`
	Email       string  `json:"email"`
	Group       string  `json:"group"`
	Credits     int32   `json:"credits"`
	WeeklyQuota *uint32 `json:"weekly_quota"`
}

// CreateMember handles POST /v1/staff/members.  weekly_quota is an
// optional per-member override of the platform default.
func (h *StaffHandler) CreateMember(c echo.Context) error {
	var req memberRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.FullName == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name and email are required"})
	}
	if req.Credits < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "credits must not be negative"})
	}
	m := &model.Member{
		FullName:    req.FullName,
		Email:       req.Email,
		Group:       req.Group,
		Credits:     req.Credits,
		WeeklyQuota: req.WeeklyQuota,
	}
	if err := h.Store.InsertMember(c.Request().Context(), m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": m.ID})
}

type creditRequest struct {
	Amount uint32 `json:"amount"`
}

// GrantCredits handles POST /v1/staff/members/:id/credits.
func (h *StaffHandler) GrantCredits(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	var req creditRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Amount == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}
	err = h.Store.GrantCredits(c.Request().Context(), id, req.Amount)
	if errors.Is(err, booking.ErrMemberNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "granted": req.Amount})
}

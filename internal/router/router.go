package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/novafit/gym-class-reservation/internal/config"
	"github.com/novafit/gym-class-reservation/internal/handler"
	"github.com/novafit/gym-class-reservation/internal/middleware"
)

// RegisterRoutes wires the infrastructure endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI wires the public API.  Browse routes accept anonymous
// callers and are cached; booking routes require a member identity;
// staff routes sit under their own prefix.  Everything shares the
// Redis token-bucket rate limiter.
func RegisterAPI(e *echo.Echo,
	reservations *handler.ReservationHandler,
	schedule *handler.ScheduleHandler,
	staff *handler.StaffHandler,
	rdb *redis.Client,
) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cached := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	browse := e.Group("/v1", middleware.OptionalMemberIdentity(), limiter)
	browse.GET("/schedule", schedule.GetSchedule, cached)
	browse.GET("/sessions/:id/occupancy", reservations.GetOccupancy, cached)

	members := e.Group("/v1", middleware.MemberIdentity(), limiter)
	members.POST("/sessions/:id/reserve", reservations.Reserve)
	members.DELETE("/sessions/:id/reservation", reservations.Cancel)
	members.GET("/sessions/:id/reservation", reservations.GetReservationStatus)
	members.GET("/members/:id", schedule.GetMember)
	members.GET("/members/:id/reservations", schedule.GetMemberReservations)

	back := e.Group("/v1/staff", limiter)
	back.POST("/sessions", staff.CreateSession)
	back.PUT("/sessions/:id", staff.UpdateSession)
	back.GET("/sessions/:id/roster", staff.GetRoster)
	back.POST("/members", staff.CreateMember)
	back.POST("/members/:id/credits", staff.GrantCredits)
}

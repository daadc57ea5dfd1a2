package middleware

// identity.go resolves the calling member.  There is no
// authentication layer in this service; callers identify themselves
// with the X-Member-ID header, which upstream infrastructure is
// expected to set.  The middleware stores the parsed id in the Echo
// context for handlers and the raw string for rate-limit keys.

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// HeaderMemberID carries the caller's member id.
const HeaderMemberID = "X-Member-ID"

const memberIDKey = "member_id"

// MemberIdentity requires a valid X-Member-ID header and stores the
// parsed id in context.  Requests without one are rejected with 401.
func MemberIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(HeaderMemberID)
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing or invalid member id"})
			}
			c.Set(memberIDKey, id)
			return next(c)
		}
	}
}

// OptionalMemberIdentity stores the member id when the header is
// present and valid, and lets the request through either way.  Used
// on browse routes that decorate responses for known members.
func OptionalMemberIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(HeaderMemberID)
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
				c.Set(memberIDKey, id)
			}
			return next(c)
		}
	}
}

// MemberID returns the member id stored by the identity middleware,
// or false when the caller is anonymous.
func MemberID(c echo.Context) (uint64, bool) {
	if v := c.Get(memberIDKey); v != nil {
		if id, ok := v.(uint64); ok && id > 0 {
			return id, true
		}
	}
	return 0, false
}

// currentMemberID returns the caller's id as a string for cache and
// rate-limit keys, or "anon".
func currentMemberID(c echo.Context) string {
	if id, ok := MemberID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}

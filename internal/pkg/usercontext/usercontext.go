package usercontext

import "github.com/gofiber/fiber/v2"

// ContextKey is the fiber Locals slot the middleware fills once per request.
const ContextKey = "ndaku_user_context"

// UserContext is the per-request view of the signed-in subscriber: identity,
// admin flag and the plan name shown in the navbar.
type UserContext struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	IsLoggedIn bool   `json:"is_logged_in"`
	IsAdmin    bool   `json:"is_admin"`
	Plan       string `json:"plan"`
}

// Anonymous is the context for requests without a session.
func Anonymous() UserContext {
	return UserContext{}
}

// Set stores the context on the request for later handlers.
func Set(c *fiber.Ctx, ctx UserContext) {
	c.Locals(ContextKey, ctx)
}

// GetUserContext returns the request's user context, anonymous when the
// middleware has not run or the visitor has no session.
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(ContextKey).(UserContext); ok {
		return ctx
	}
	return Anonymous()
}

// IsLoggedIn reports whether the request carries an authenticated session.
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// IsAdmin reports whether the signed-in user has the admin role.
func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

// GetUserID returns the signed-in user's ID, 0 for anonymous requests.
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}

// GetUsername returns the signed-in user's display name.
func GetUsername(c *fiber.Ctx) string {
	return GetUserContext(c).Username
}

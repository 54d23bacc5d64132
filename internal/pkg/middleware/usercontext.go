package middleware

import (
	"github.com/didierkasongo/ndaku/app/controllers"
	"github.com/didierkasongo/ndaku/internal/pkg/billing"
	"github.com/didierkasongo/ndaku/internal/pkg/database"
	"github.com/didierkasongo/ndaku/internal/pkg/session"
	"github.com/didierkasongo/ndaku/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware resolves the session into a UserContext once per
// request so handlers and templates never touch the session store directly.
func UserContextMiddleware(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		setAnonymous(c)
		return c.Next()
	}

	userID := sess.Get(controllers.USER_ID)
	if userID == nil {
		setAnonymous(c)
		return c.Next()
	}

	username := session.GetSessionValue(c, controllers.USER_NAME)
	isAdmin := sess.Get(controllers.USER_IS_ADMIN)

	// Plan name is session-cached; an empty value forces a DB lookup, which
	// is how payment confirmation invalidates it.
	plan := session.GetSessionValue(c, "user_plan")
	if plan == "" {
		plan = "free"
		if db := database.GetDB(); db != nil {
			svc := billing.NewService(billing.NewRepository(db))
			if sub, err := svc.CurrentSubscription(c.UserContext(), userID.(uint)); err == nil && sub.Plan != nil {
				plan = sub.Plan.Name
			}
		}
		_ = session.SetSessionValue(c, "user_plan", plan)
	}

	userCtx := usercontext.UserContext{
		UserID:     userID.(uint),
		Username:   username,
		IsLoggedIn: true,
		IsAdmin:    isAdmin != nil && isAdmin.(bool),
		Plan:       plan,
	}
	usercontext.Set(c, userCtx)

	// Legacy Locals still read by the auth redirects
	c.Locals(controllers.FROM_PROTECTED, true)
	c.Locals(controllers.USER_NAME, username)
	c.Locals(controllers.USER_ID, userID.(uint))
	c.Locals(controllers.USER_IS_ADMIN, userCtx.IsAdmin)

	return c.Next()
}

func setAnonymous(c *fiber.Ctx) {
	usercontext.Set(c, usercontext.Anonymous())
	c.Locals(controllers.FROM_PROTECTED, false)
	c.Locals(controllers.USER_IS_ADMIN, false)
}

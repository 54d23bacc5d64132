package router

import (
	"strings"
	"time"

	"github.com/didierkasongo/ndaku/app/controllers"
	"github.com/didierkasongo/ndaku/internal/pkg/env"
	"github.com/didierkasongo/ndaku/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", loggedInMiddleware, controllers.HandleStart)
	group.Get("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Get("/activate", loggedInMiddleware, controllers.HandleAuthActivate)
	group.Post("/activate", loggedInMiddleware, controllers.HandleAuthActivate)

	// Subscriber area
	group.Get("/user/subscription", middleware.RequireAuth, controllers.HandleSubscription)
	group.Post("/user/subscription/confirm-payment", middleware.RequireAuth, controllers.HandlePaymentConfirm)
	group.Get("/user/properties", middleware.RequireAuth, controllers.HandleUserProperties)
	group.Post("/user/properties", middleware.RequireAuth, controllers.HandlePropertyCreate)
	group.Get("/user/agencies", middleware.RequireAuth, controllers.HandleUserAgencies)
	group.Post("/user/agencies", middleware.RequireAuth, controllers.HandleAgencyCreate)
	group.Get("/user/leases", middleware.RequireAuth, controllers.HandleUserLeases)
	group.Post("/user/leases", middleware.RequireAuth, controllers.HandleLeaseCreate)
	group.Post("/user/leases/terminate/:id", middleware.RequireAuth, controllers.HandleLeaseTerminate)

	// Admin settings
	group.Get("/admin/settings", middleware.RequireAdmin, controllers.HandleAdminSettings)
	group.Post("/admin/settings", middleware.RequireAdmin, controllers.HandleAdminSettingsUpdate)
}

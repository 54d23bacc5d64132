package router

import (
	"github.com/didierkasongo/ndaku/app/controllers"
	"github.com/didierkasongo/ndaku/internal/pkg/middleware"
	"github.com/didierkasongo/ndaku/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Initialize admin controller with repositories
	controllers.InitializeAdminController()

	h.registerPublicRoutes(app)
	h.registerAdminRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context; nothing extra here.
	return c.Next()
}

// Auth middlewares live in internal/pkg/middleware/auth.go

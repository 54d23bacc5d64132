package router

import (
	"github.com/didierkasongo/ndaku/app/controllers"
	"github.com/didierkasongo/ndaku/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Static pages
	app.Get("/about", loggedInMiddleware, controllers.HandleAbout)
	app.Get("/contact", loggedInMiddleware, controllers.HandleContact)
	app.Get("/pricing", loggedInMiddleware, controllers.HandlePricing)

	// Public listing pages
	app.Get("/property/:id", loggedInMiddleware, controllers.HandlePropertyView)
	app.Get("/agency/:id", loggedInMiddleware, controllers.HandleAgencyView)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)
}

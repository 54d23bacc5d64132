package router

import (
	"github.com/didierkasongo/ndaku/app/controllers"
	"github.com/didierkasongo/ndaku/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/", controllers.HandleAdminDashboard)
	adminGroup.Get("/users", controllers.HandleAdminUsers)

	// Billing back office
	adminGroup.Get("/billing", controllers.HandleAdminBilling)
	adminGroup.Post("/billing/activate", controllers.HandleAdminActivateSubscription)
	adminGroup.Post("/billing/cancel/:id", controllers.HandleAdminCancelSubscription)
	adminGroup.Post("/billing/mark-paid/:id", controllers.HandleAdminBillingMarkPaid)
	adminGroup.Post("/billing/status/:id", controllers.HandleAdminBillingStatus)
	adminGroup.Post("/billing/delete/:id", controllers.HandleAdminBillingDelete)
	adminGroup.Post("/billing/expire", controllers.HandleAdminExpireSubscriptions)

	// Promo codes
	adminGroup.Post("/promo-codes", controllers.HandleAdminPromoCodeCreate)
	adminGroup.Post("/promo-codes/deactivate/:id", controllers.HandleAdminPromoCodeDeactivate)

	// Cache monitor
	adminGroup.Get("/cache", controllers.HandleAdminCache)
	adminGroup.Post("/cache/purge", controllers.HandleAdminCachePurge)
}

package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/didierkasongo/ndaku/internal/pkg/middleware"
)

// RegisterHandlers attaches the v1 routes to the given router group.
// Session auth is enforced per route; admin-only operations get the
// stricter guard.
func RegisterHandlers(router fiber.Router, server *APIServer) {
	router.Get("/ping", server.GetPing)

	// Public catalog
	router.Get("/plans", server.GetPlans)
	router.Get("/payment-methods", server.GetPaymentMethods)

	// Subscriber endpoints
	router.Post("/promo-codes/validate", middleware.RequireAPISessionAuth, server.PostPromoValidate)
	router.Get("/subscriptions/current", middleware.RequireAPISessionAuth, server.GetCurrentSubscription)
	router.Get("/limits/:resource", middleware.RequireAPISessionAuth, server.GetResourceLimit)

	// Admin endpoints
	router.Get("/promo-codes", middleware.RequireAPIAdminAuth, server.GetPromoCodes)
	router.Post("/subscriptions/activate", middleware.RequireAPIAdminAuth, server.PostSubscriptionActivate)
	router.Post("/subscriptions/cancel", middleware.RequireAPIAdminAuth, server.PostSubscriptionCancel)
	router.Delete("/billing/:id", middleware.RequireAPIAdminAuth, server.DeleteBillingRecord)
}

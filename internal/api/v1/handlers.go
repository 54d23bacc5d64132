package apiv1

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/didierkasongo/ndaku/internal/pkg/billing"
	"github.com/didierkasongo/ndaku/internal/pkg/database"
	"github.com/didierkasongo/ndaku/internal/pkg/entitlements"
	"github.com/didierkasongo/ndaku/internal/pkg/usercontext"
)

// APIServer holds the dependencies of the JSON API handlers.
type APIServer struct {
	svc *billing.Service
}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{
		svc: billing.NewServiceFromDB(database.GetDB()),
	}
}

// Pong is the ping response body.
type Pong struct {
	Ping string `json:"ping"`
}

// httpStatusFor maps a billing rejection onto its HTTP status.
func httpStatusFor(err error) int {
	switch billing.KindOf(err) {
	case billing.KindNotFound:
		return fiber.StatusNotFound
	case billing.KindNoopConflict, billing.KindTooSoon:
		return fiber.StatusConflict
	case billing.KindValidation,
		billing.KindPromoNotFound,
		billing.KindPromoExpired,
		billing.KindPromoBelowMinimum,
		billing.KindPromoPlanNotEligible,
		billing.KindPromoUsageExhausted,
		billing.KindPromoUserUsageExceeded:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// jsonError renders a billing rejection with its stable error kind.
func jsonError(c *fiber.Ctx, err error) error {
	kind := billing.KindOf(err)
	if kind == "" {
		kind = billing.KindPersistence
	}
	return c.Status(httpStatusFor(err)).JSON(fiber.Map{
		"error":   string(kind),
		"message": err.Error(),
	})
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// PostSubscriptionActivate performs a manual activation. Admin only.
func (s *APIServer) PostSubscriptionActivate(c *fiber.Ctx) error {
	var req billing.ActivationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": "invalid request body",
		})
	}
	req.AdminID = usercontext.GetUserID(c)

	result, err := s.svc.Activate(c.UserContext(), req)
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// PostPromoValidate checks a promo code against a plan without redeeming it.
func (s *APIServer) PostPromoValidate(c *fiber.Ctx) error {
	var req struct {
		Code   string `json:"code"`
		PlanID uint   `json:"plan_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.Code == "" || req.PlanID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": "code and plan_id are required",
		})
	}

	plan, err := s.svc.PlanByID(c.UserContext(), req.PlanID)
	if err != nil {
		return jsonError(c, err)
	}

	validation, err := s.svc.ValidatePromoCode(c.UserContext(), req.Code, usercontext.GetUserID(c), plan.ID, plan.Price)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(validation)
}

// PostSubscriptionCancel cancels a subscriber's active subscription. Admin only.
func (s *APIServer) PostSubscriptionCancel(c *fiber.Ctx) error {
	var req struct {
		UserID uint   `json:"user_id"`
		Note   string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": "user_id is required",
		})
	}

	if err := s.svc.Cancel(c.UserContext(), req.UserID, usercontext.GetUserID(c), req.Note); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"cancelled": true})
}

// DeleteBillingRecord removes a billing record. Admin only.
func (s *APIServer) DeleteBillingRecord(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": "invalid billing record id",
		})
	}

	if err := s.svc.DeleteBillingRecord(c.UserContext(), uint(id), usercontext.GetUserID(c)); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// GetPlans lists the active subscription plans.
func (s *APIServer) GetPlans(c *fiber.Ctx) error {
	plans, err := s.svc.ListPlans(c.UserContext())
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// GetPaymentMethods lists the active payment methods.
func (s *APIServer) GetPaymentMethods(c *fiber.Ctx) error {
	methods, err := s.svc.ListPaymentMethods(c.UserContext())
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"payment_methods": methods})
}

// GetPromoCodes lists the promo code catalog. Admin only.
func (s *APIServer) GetPromoCodes(c *fiber.Ctx) error {
	promos, err := s.svc.ListPromoCodes(c.UserContext())
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"promo_codes": promos})
}

// GetCurrentSubscription returns the caller's active subscription.
func (s *APIServer) GetCurrentSubscription(c *fiber.Ctx) error {
	sub, err := s.svc.CurrentSubscription(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(sub)
}

// GetResourceLimit returns the caller's quota check for one resource.
func (s *APIServer) GetResourceLimit(c *fiber.Ctx) error {
	resource := entitlements.Resource(c.Params("resource"))
	if !resource.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": "unknown resource",
		})
	}

	check, err := entitlements.Check(database.GetDB(), usercontext.GetUserID(c), resource)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "persistence",
			"message": err.Error(),
		})
	}
	return c.JSON(check)
}

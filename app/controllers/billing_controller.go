package controllers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/didierkasongo/ndaku/internal/pkg/billing"
	"github.com/didierkasongo/ndaku/internal/pkg/database"
	"github.com/didierkasongo/ndaku/internal/pkg/session"
	"github.com/didierkasongo/ndaku/internal/pkg/usercontext"
)

// HandleSubscription renders the signed-in user's subscription page.
func HandleSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	svc := billing.NewServiceFromDB(database.GetDB())

	sub, err := svc.CurrentSubscription(c.UserContext(), userCtx.UserID)
	if err != nil && !billing.IsKind(err, billing.KindNotFound) {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	plans, err := svc.ListPlans(c.UserContext())
	if err != nil {
		plans = nil
	}
	methods, err := svc.ListPaymentMethods(c.UserContext())
	if err != nil {
		methods = nil
	}

	return c.Render("user/subscription", fiber.Map{
		"Title":          "Mon abonnement",
		"User":           userCtx,
		"Flash":          flash.Get(c),
		"Csrf":           c.Locals("csrf"),
		"Subscription":   sub,
		"Plans":          plans,
		"PaymentMethods": methods,
	})
}

// HandlePaymentConfirm records a payment reported by the subscriber. With
// auto-activation on, the subscription starts immediately; otherwise the
// payment waits for administrator review.
func HandlePaymentConfirm(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	planID, err := strconv.ParseUint(c.FormValue("plan_id"), 10, 32)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Formule invalide",
		}
		return flash.WithError(c, fm).Redirect("/user/subscription")
	}
	methodCode := c.FormValue("payment_method")
	txnID := c.FormValue("transaction_id")

	ipv4, ipv6 := GetClientIP(c)
	log.Infof("payment confirmation from user %d (ip %s %s): plan %d via %s",
		userCtx.UserID, ipv4, ipv6, planID, methodCode)

	svc := billing.NewServiceFromDB(database.GetDB())
	_, activated, err := svc.HandlePaymentConfirmation(c.UserContext(), userCtx.UserID, uint(planID), methodCode, txnID)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": err.Error(),
		}
		return flash.WithError(c, fm).Redirect("/user/subscription")
	}

	// Plan shown in the navbar may have changed
	_ = session.SetSessionValue(c, "user_plan", "")

	fm := fiber.Map{
		"type":    "success",
		"message": "Paiement enregistre. Un administrateur va le valider.",
	}
	if activated {
		fm["message"] = "Paiement confirme, votre abonnement est actif!"
	}
	return flash.WithSuccess(c, fm).Redirect("/user/subscription")
}

package controllers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/didierkasongo/ndaku/app/models"
	"github.com/didierkasongo/ndaku/app/repository"
	"github.com/didierkasongo/ndaku/internal/pkg/billing"
	"github.com/didierkasongo/ndaku/internal/pkg/database"
	"github.com/didierkasongo/ndaku/internal/pkg/entitlements"
	"github.com/didierkasongo/ndaku/internal/pkg/usercontext"
)

var (
	adminUserRepo    repository.UserRepository
	adminSettingRepo repository.SettingRepository
	adminBillingSvc  *billing.Service
)

// InitializeAdminController wires the admin handlers to their repositories
// and the billing service. Must run after the repository factory is set up.
func InitializeAdminController() {
	repos := repository.GetGlobalRepositories()
	adminUserRepo = repos.User
	adminSettingRepo = repos.Setting
	adminBillingSvc = billing.NewServiceFromDB(database.GetDB())
}

// flashBillingError maps a billing rejection onto a flash redirect.
func flashBillingError(c *fiber.Ctx, err error, target string) error {
	fm := fiber.Map{
		"type":    "error",
		"message": err.Error(),
	}
	return flash.WithError(c, fm).Redirect(target)
}

// HandleAdminDashboard renders payment counters and recent billing activity.
func HandleAdminDashboard(c *fiber.Ctx) error {
	stats, err := adminBillingSvc.Stats(c.UserContext())
	if err != nil {
		return fmt.Errorf("failed to load billing stats: %w", err)
	}

	recent, err := adminBillingSvc.ActivationHistory(c.UserContext(), 20)
	if err != nil {
		recent = nil
	}

	userCount, _ := adminUserRepo.Count()

	return c.Render("admin/dashboard", fiber.Map{
		"Title":     "Administration",
		"User":      usercontext.GetUserContext(c),
		"Flash":     flash.Get(c),
		"Stats":     stats,
		"Recent":    recent,
		"UserCount": userCount,
	})
}

// HandleAdminUsers lists users, optionally filtered by a search query.
func HandleAdminUsers(c *fiber.Ctx) error {
	query := c.Query("q")

	var users []models.User
	var err error
	if query != "" {
		users, err = adminUserRepo.Search(query)
	} else {
		users, err = adminUserRepo.List(0, 50)
	}
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	return c.Render("admin/users", fiber.Map{
		"Title": "Utilisateurs",
		"User":  usercontext.GetUserContext(c),
		"Flash": flash.Get(c),
		"Csrf":  c.Locals("csrf"),
		"Users": users,
		"Query": query,
	})
}

// HandleAdminBilling renders the activation form and billing history.
func HandleAdminBilling(c *fiber.Ctx) error {
	ctx := c.UserContext()

	records, err := adminBillingSvc.ActivationHistory(ctx, 100)
	if err != nil {
		return fmt.Errorf("failed to load billing history: %w", err)
	}
	plans, _ := adminBillingSvc.ListPlans(ctx)
	methods, _ := adminBillingSvc.ListPaymentMethods(ctx)
	promos, _ := adminBillingSvc.ListPromoCodes(ctx)

	return c.Render("admin/billing", fiber.Map{
		"Title":          "Facturation",
		"User":           usercontext.GetUserContext(c),
		"Flash":          flash.Get(c),
		"Csrf":           c.Locals("csrf"),
		"Records":        records,
		"Plans":          plans,
		"PaymentMethods": methods,
		"PromoCodes":     promos,
		"AutoActivation": models.GetAppSettings().IsAutoSubscriptionActivationEnabled(),
	})
}

// HandleAdminActivateSubscription performs a manual subscription activation.
func HandleAdminActivateSubscription(c *fiber.Ctx) error {
	userID, err1 := strconv.ParseUint(c.FormValue("user_id"), 10, 32)
	planID, err2 := strconv.ParseUint(c.FormValue("plan_id"), 10, 32)
	methodID, err3 := strconv.ParseUint(c.FormValue("payment_method_id"), 10, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Formulaire d'activation invalide",
		}
		return flash.WithError(c, fm).Redirect("/admin/billing")
	}

	result, err := adminBillingSvc.Activate(c.UserContext(), billing.ActivationRequest{
		UserID:          uint(userID),
		PlanID:          uint(planID),
		PaymentMethodID: uint(methodID),
		PromoCode:       c.FormValue("promo_code"),
		AdminID:         usercontext.GetUserID(c),
		AdminNote:       c.FormValue("note"),
	})
	if err != nil {
		return flashBillingError(c, err, "/admin/billing")
	}

	fm := fiber.Map{
		"type": "success",
		"message": fmt.Sprintf("Abonnement active (facture #%d, montant %d FCFA, fin %s)",
			result.BillingRecordID, result.Amount, result.EndDate.Format("02/01/2006")),
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/billing")
}

// HandleAdminCancelSubscription cancels a subscriber's active subscription.
func HandleAdminCancelSubscription(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Utilisateur invalide",
		}
		return flash.WithError(c, fm).Redirect("/admin/billing")
	}

	err = adminBillingSvc.Cancel(c.UserContext(), uint(userID), usercontext.GetUserID(c), c.FormValue("note"))
	if err != nil {
		return flashBillingError(c, err, "/admin/billing")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Abonnement annule",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/billing")
}

// HandleAdminBillingMarkPaid reconciles a pending payment as paid.
func HandleAdminBillingMarkPaid(c *fiber.Ctx) error {
	recordID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Facture invalide",
		}
		return flash.WithError(c, fm).Redirect("/admin/billing")
	}

	if err := adminBillingSvc.MarkBillingPaid(c.UserContext(), uint(recordID), usercontext.GetUserID(c)); err != nil {
		return flashBillingError(c, err, "/admin/billing")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Paiement valide, abonnement actif",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/billing")
}

// HandleAdminBillingStatus applies an administrative billing status change.
func HandleAdminBillingStatus(c *fiber.Ctx) error {
	recordID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Facture invalide",
		}
		return flash.WithError(c, fm).Redirect("/admin/billing")
	}
	status := models.BillingStatus(c.FormValue("status"))

	if err := adminBillingSvc.UpdateBillingStatus(c.UserContext(), uint(recordID), status, usercontext.GetUserID(c)); err != nil {
		return flashBillingError(c, err, "/admin/billing")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Statut de la facture mis a jour",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/billing")
}

// HandleAdminBillingDelete removes a billing record.
func HandleAdminBillingDelete(c *fiber.Ctx) error {
	recordID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Facture invalide",
		}
		return flash.WithError(c, fm).Redirect("/admin/billing")
	}

	if err := adminBillingSvc.DeleteBillingRecord(c.UserContext(), uint(recordID), usercontext.GetUserID(c)); err != nil {
		return flashBillingError(c, err, "/admin/billing")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Facture supprimee",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/billing")
}

// HandleAdminPromoCodeCreate stores a new promo code.
func HandleAdminPromoCodeCreate(c *fiber.Ctx) error {
	discountValue, _ := strconv.ParseInt(c.FormValue("discount_value"), 10, 64)
	promo := &models.PromoCode{
		Code:          c.FormValue("code"),
		Name:          c.FormValue("name"),
		Description:   c.FormValue("description"),
		DiscountType:  models.DiscountType(c.FormValue("discount_type")),
		DiscountValue: discountValue,
		UserUsageLimit: func() int {
			if v, err := strconv.Atoi(c.FormValue("user_usage_limit")); err == nil && v > 0 {
				return v
			}
			return 1
		}(),
		IsActive:  true,
		CreatedBy: usercontext.GetUserID(c),
	}
	if v, err := strconv.ParseInt(c.FormValue("min_order_amount"), 10, 64); err == nil {
		promo.MinOrderAmount = v
	}
	if v, err := strconv.ParseInt(c.FormValue("max_discount_amount"), 10, 64); err == nil && v > 0 {
		promo.MaxDiscountAmount = &v
	}
	if v, err := strconv.Atoi(c.FormValue("usage_limit")); err == nil && v > 0 {
		promo.UsageLimit = &v
	}
	if t, err := time.Parse("2006-01-02", c.FormValue("valid_from")); err == nil {
		promo.ValidFrom = &t
	}
	if t, err := time.Parse("2006-01-02", c.FormValue("valid_until")); err == nil {
		end := t.Add(24*time.Hour - time.Second)
		promo.ValidUntil = &end
	}
	if raw := c.FormValue("applicable_plans"); raw != "" {
		var ids []uint
		for _, part := range strings.Split(raw, ",") {
			if id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32); err == nil {
				ids = append(ids, uint(id))
			}
		}
		_ = promo.SetApplicablePlanIDs(ids)
	}

	if err := adminBillingSvc.CreatePromoCode(c.UserContext(), promo); err != nil {
		return flashBillingError(c, err, "/admin/billing")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": fmt.Sprintf("Code promo %s cree", promo.Code),
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/billing")
}

// HandleAdminPromoCodeDeactivate turns a promo code off.
func HandleAdminPromoCodeDeactivate(c *fiber.Ctx) error {
	promoID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Code promo invalide",
		}
		return flash.WithError(c, fm).Redirect("/admin/billing")
	}

	if err := adminBillingSvc.DeactivatePromoCode(c.UserContext(), uint(promoID)); err != nil {
		return flashBillingError(c, err, "/admin/billing")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Code promo desactive",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/billing")
}

// HandleAdminExpireSubscriptions expires overdue subscriptions and trims the
// downgraded subscribers' resources to their new quota.
func HandleAdminExpireSubscriptions(c *fiber.Ctx) error {
	userIDs, err := adminBillingSvc.ExpireOverdueSubscriptions(c.UserContext())
	if err != nil {
		return flashBillingError(c, err, "/admin/billing")
	}

	db := database.GetDB()
	var deactivated int64
	for _, userID := range userIDs {
		plan, planErr := activePlanForQuota(c, userID)
		if planErr != nil {
			continue
		}
		n, _ := entitlements.DeactivateExcess(db, userID, plan)
		deactivated += n
	}

	fm := fiber.Map{
		"type": "success",
		"message": fmt.Sprintf("%d abonnements expires, %d ressources desactivees",
			len(userIDs), deactivated),
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/billing")
}

// activePlanForQuota loads the subscriber's current plan, or nil for the
// free-tier fallback.
func activePlanForQuota(c *fiber.Ctx, userID uint) (*models.SubscriptionPlan, error) {
	sub, err := adminBillingSvc.CurrentSubscription(c.UserContext(), userID)
	if err != nil {
		if billing.IsKind(err, billing.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub.Plan, nil
}

// HandleAdminSettings renders the global configuration form.
func HandleAdminSettings(c *fiber.Ctx) error {
	settings, err := adminSettingRepo.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	return c.Render("admin/settings", fiber.Map{
		"Title":    "Configuration",
		"User":     usercontext.GetUserContext(c),
		"Flash":    flash.Get(c),
		"Csrf":     c.Locals("csrf"),
		"Settings": settings.Snapshot(),
	})
}

// HandleAdminSettingsUpdate saves the global configuration, auditing any
// change of the auto-activation toggle.
func HandleAdminSettingsUpdate(c *fiber.Ctx) error {
	current, err := adminSettingRepo.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	wasAuto := current.Snapshot().AutoSubscriptionActivation
	nowAuto := c.FormValue("auto_subscription_activation") == "on"

	settings := &models.AppSettings{
		SiteTitle:                  c.FormValue("site_title"),
		SiteDescription:            c.FormValue("site_description"),
		PropertyListingEnabled:     c.FormValue("property_listing_enabled") == "on",
		AutoSubscriptionActivation: nowAuto,
	}

	if err := adminSettingRepo.Save(settings); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/admin/settings")
	}

	if wasAuto != nowAuto {
		if err := adminBillingSvc.RecordAutoActivationToggle(c.UserContext(), usercontext.GetUserID(c), nowAuto); err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": fmt.Sprintf("settings saved but audit failed: %s", err),
			}
			return flash.WithError(c, fm).Redirect("/admin/settings")
		}
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Configuration enregistree",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/settings")
}

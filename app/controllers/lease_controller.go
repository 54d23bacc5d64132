package controllers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/didierkasongo/ndaku/app/models"
	"github.com/didierkasongo/ndaku/app/repository"
	"github.com/didierkasongo/ndaku/internal/pkg/database"
	"github.com/didierkasongo/ndaku/internal/pkg/entitlements"
	"github.com/didierkasongo/ndaku/internal/pkg/usercontext"
)

// HandleUserLeases lists the signed-in owner's leases with their quota.
func HandleUserLeases(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	leases, err := repository.GetGlobalRepositories().Lease.GetByOwnerID(userCtx.UserID)
	if err != nil {
		leases = nil
	}

	check, err := entitlements.Check(database.GetDB(), userCtx.UserID, entitlements.ResourceLeases)
	if err != nil {
		check = &entitlements.LimitCheck{Resource: entitlements.ResourceLeases}
	}

	properties, err := repository.GetGlobalRepositories().Property.GetByOwnerID(userCtx.UserID, 0, 100)
	if err != nil {
		properties = nil
	}

	return c.Render("user/leases", fiber.Map{
		"Title":      "Mes baux",
		"User":       userCtx,
		"Flash":      flash.Get(c),
		"Csrf":       c.Locals("csrf"),
		"Leases":     leases,
		"Quota":      check,
		"Properties": properties,
	})
}

// HandleLeaseCreate stores a new lease after checking the owner's quota and
// that the property belongs to them. Creating an active lease marks the
// property rented.
func HandleLeaseCreate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	check, err := entitlements.Check(database.GetDB(), userCtx.UserID, entitlements.ResourceLeases)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/user/leases")
	}
	if !check.Allowed {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("Limite atteinte: votre abonnement autorise %d baux", check.Limit),
		}
		return flash.WithError(c, fm).Redirect("/pricing")
	}

	propertyID, err := strconv.ParseUint(c.FormValue("property_id"), 10, 32)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Annonce invalide",
		}
		return flash.WithError(c, fm).Redirect("/user/leases")
	}

	property, err := repository.GetGlobalRepositories().Property.GetByID(uint(propertyID))
	if err != nil || property.OwnerID != userCtx.UserID {
		fm := fiber.Map{
			"type":    "error",
			"message": "Cette annonce ne vous appartient pas",
		}
		return flash.WithError(c, fm).Redirect("/user/leases")
	}

	rent, _ := strconv.ParseInt(c.FormValue("monthly_rent"), 10, 64)
	startDate := time.Now()
	if t, err := time.Parse("2006-01-02", c.FormValue("start_date")); err == nil {
		startDate = t
	}

	lease := &models.Lease{
		PropertyID:  property.ID,
		OwnerID:     userCtx.UserID,
		TenantName:  c.FormValue("tenant_name"),
		TenantPhone: c.FormValue("tenant_phone"),
		MonthlyRent: rent,
		Status:      models.LeaseStatusActive,
		StartDate:   startDate,
		IsActive:    true,
	}
	if t, err := time.Parse("2006-01-02", c.FormValue("end_date")); err == nil {
		lease.EndDate = &t
	}

	if err := repository.GetGlobalRepositories().Lease.Create(lease); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/user/leases")
	}

	_ = repository.GetGlobalRepositories().Property.UpdateStatus(property.ID, models.PropertyStatusRented)

	fm := fiber.Map{
		"type":    "success",
		"message": "Bail enregistre!",
	}
	return flash.WithSuccess(c, fm).Redirect("/user/leases")
}

// HandleLeaseTerminate ends a lease and frees the property for new listings.
func HandleLeaseTerminate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	leaseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Bail invalide",
		}
		return flash.WithError(c, fm).Redirect("/user/leases")
	}

	leaseRepo := repository.GetGlobalRepositories().Lease
	lease, err := leaseRepo.GetByID(uint(leaseID))
	if err != nil || lease.OwnerID != userCtx.UserID {
		fm := fiber.Map{
			"type":    "error",
			"message": "Ce bail ne vous appartient pas",
		}
		return flash.WithError(c, fm).Redirect("/user/leases")
	}

	now := time.Now()
	lease.Status = models.LeaseStatusTerminated
	lease.EndDate = &now
	lease.IsActive = false
	if err := leaseRepo.Update(lease); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/user/leases")
	}

	_ = repository.GetGlobalRepositories().Property.UpdateStatus(lease.PropertyID, models.PropertyStatusAvailable)

	fm := fiber.Map{
		"type":    "success",
		"message": "Bail termine",
	}
	return flash.WithSuccess(c, fm).Redirect("/user/leases")
}

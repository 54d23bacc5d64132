package controllers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/didierkasongo/ndaku/app/models"
	"github.com/didierkasongo/ndaku/app/repository"
	"github.com/didierkasongo/ndaku/internal/pkg/database"
	"github.com/didierkasongo/ndaku/internal/pkg/entitlements"
	"github.com/didierkasongo/ndaku/internal/pkg/metrics/counter"
	"github.com/didierkasongo/ndaku/internal/pkg/usercontext"
)

// HandleAgencyView renders a public agency page with its active listings.
func HandleAgencyView(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("error", fiber.Map{
			"Title":   "Introuvable",
			"User":    usercontext.GetUserContext(c),
			"Message": "Cette agence n'existe pas",
		})
	}

	agency, err := repository.GetGlobalRepositories().Agency.GetByID(uint(id))
	if err != nil || !agency.IsActive {
		return c.Status(fiber.StatusNotFound).Render("error", fiber.Map{
			"Title":   "Introuvable",
			"User":    usercontext.GetUserContext(c),
			"Message": "Cette agence n'existe pas",
		})
	}

	// View counting is best effort; page render never fails because of it
	_ = counter.AddAgencyView(agency.ID)

	properties, err := repository.GetGlobalRepositories().Property.GetByAgencyID(agency.ID, 0, 50)
	if err != nil {
		properties = nil
	}

	return c.Render("agency", fiber.Map{
		"Title":      agency.Name,
		"User":       usercontext.GetUserContext(c),
		"Agency":     agency,
		"Properties": properties,
	})
}

// HandleUserAgencies lists the signed-in owner's agencies with their quota.
func HandleUserAgencies(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	agencies, err := repository.GetGlobalRepositories().Agency.GetByOwnerID(userCtx.UserID)
	if err != nil {
		agencies = nil
	}

	check, err := entitlements.Check(database.GetDB(), userCtx.UserID, entitlements.ResourceAgencies)
	if err != nil {
		check = &entitlements.LimitCheck{Resource: entitlements.ResourceAgencies}
	}

	return c.Render("user/agencies", fiber.Map{
		"Title":    "Mes agences",
		"User":     userCtx,
		"Flash":    flash.Get(c),
		"Csrf":     c.Locals("csrf"),
		"Agencies": agencies,
		"Quota":    check,
	})
}

// HandleAgencyCreate stores a new agency after checking the owner's quota.
// The owner is attached to the agency when they do not belong to one yet.
func HandleAgencyCreate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	check, err := entitlements.Check(database.GetDB(), userCtx.UserID, entitlements.ResourceAgencies)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/user/agencies")
	}
	if !check.Allowed {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("Limite atteinte: votre abonnement autorise %d agences", check.Limit),
		}
		return flash.WithError(c, fm).Redirect("/pricing")
	}

	agency := &models.Agency{
		OwnerID:     userCtx.UserID,
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Email:       c.FormValue("email"),
		Phone:       c.FormValue("phone"),
		City:        c.FormValue("city"),
		Address:     c.FormValue("address"),
		IsActive:    true,
	}
	if err := agency.Validate(); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("Agence invalide: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/user/agencies")
	}

	userRepo := repository.GetGlobalRepositories().User
	if err := repository.GetGlobalRepositories().Agency.Create(agency); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/user/agencies")
	}

	// First agency makes the owner an agency member
	user, err := userRepo.GetByID(userCtx.UserID)
	if err == nil && !user.IsAgencyMember() {
		user.AgencyID = &agency.ID
		user.Role = models.ROLE_AGENCY
		_ = userRepo.Update(user)
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Agence creee!",
	}
	return flash.WithSuccess(c, fm).Redirect("/user/agencies")
}

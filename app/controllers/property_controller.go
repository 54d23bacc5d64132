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

// HandlePropertyView renders a single listing and counts the view.
func HandlePropertyView(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("error", fiber.Map{
			"Title":   "Introuvable",
			"User":    usercontext.GetUserContext(c),
			"Message": "Cette annonce n'existe pas",
		})
	}

	property, err := repository.GetGlobalRepositories().Property.GetByID(uint(id))
	if err != nil || !property.IsActive {
		return c.Status(fiber.StatusNotFound).Render("error", fiber.Map{
			"Title":   "Introuvable",
			"User":    usercontext.GetUserContext(c),
			"Message": "Cette annonce n'existe pas",
		})
	}

	// View counting is best effort; page render never fails because of it
	_ = counter.AddPropertyView(property.ID)

	return c.Render("property", fiber.Map{
		"Title":    property.Title,
		"User":     usercontext.GetUserContext(c),
		"Property": property,
	})
}

// HandlePropertyCreate stores a new listing after checking the owner's quota.
func HandlePropertyCreate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	check, err := entitlements.Check(database.GetDB(), userCtx.UserID, entitlements.ResourceProperties)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/user/properties")
	}
	if !check.Allowed {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("Limite atteinte: votre abonnement autorise %d annonces", check.Limit),
		}
		return flash.WithError(c, fm).Redirect("/pricing")
	}

	user, err := repository.GetGlobalRepositories().User.GetByID(userCtx.UserID)
	if err != nil || !user.IsAgencyMember() {
		fm := fiber.Map{
			"type":    "error",
			"message": "Vous devez appartenir a une agence pour publier une annonce",
		}
		return flash.WithError(c, fm).Redirect("/user/properties")
	}

	price, _ := strconv.ParseInt(c.FormValue("price"), 10, 64)
	property := &models.Property{
		AgencyID:    *user.AgencyID,
		OwnerID:     user.ID,
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Type:        c.FormValue("type"),
		Status:      models.PropertyStatusAvailable,
		Price:       price,
		City:        c.FormValue("city"),
		Address:     c.FormValue("address"),
		IsActive:    true,
	}
	if err := property.Validate(); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("Annonce invalide: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/user/properties")
	}

	if err := repository.GetGlobalRepositories().Property.Create(property); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/user/properties")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Annonce publiee!",
	}
	return flash.WithSuccess(c, fm).Redirect("/user/properties")
}

// HandleUserProperties lists the signed-in owner's listings with their quota.
func HandleUserProperties(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	properties, err := repository.GetGlobalRepositories().Property.GetByOwnerID(userCtx.UserID, 0, 100)
	if err != nil {
		properties = nil
	}

	check, err := entitlements.Check(database.GetDB(), userCtx.UserID, entitlements.ResourceProperties)
	if err != nil {
		check = &entitlements.LimitCheck{Resource: entitlements.ResourceProperties}
	}

	return c.Render("user/properties", fiber.Map{
		"Title":      "Mes annonces",
		"User":       userCtx,
		"Flash":      flash.Get(c),
		"Csrf":       c.Locals("csrf"),
		"Properties": properties,
		"Quota":      check,
	})
}

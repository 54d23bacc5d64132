package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/didierkasongo/ndaku/app/repository"
	"github.com/didierkasongo/ndaku/internal/pkg/billing"
	"github.com/didierkasongo/ndaku/internal/pkg/database"
	"github.com/didierkasongo/ndaku/internal/pkg/statistics"
	"github.com/didierkasongo/ndaku/internal/pkg/usercontext"
)

const startPageSize = 24

// HandleStart renders the start page with recent listings and site counters.
func HandleStart(c *fiber.Ctx) error {
	go statistics.UpdateCacheIfNeeded()

	properties, err := repository.GetGlobalRepositories().Property.ListAvailable(0, startPageSize)
	if err != nil {
		properties = nil
	}

	return c.Render("index", fiber.Map{
		"Title":      "Ndaku - Immobilier en RDC",
		"User":       usercontext.GetUserContext(c),
		"Flash":      flash.Get(c),
		"Properties": properties,
		"Stats":      statistics.GetStatisticsData(),
	})
}

// HandlePricing renders the public plan catalog.
func HandlePricing(c *fiber.Ctx) error {
	svc := billing.NewServiceFromDB(database.GetDB())
	plans, err := svc.ListPlans(c.UserContext())
	if err != nil {
		plans = nil
	}

	return c.Render("pricing", fiber.Map{
		"Title": "Nos abonnements",
		"User":  usercontext.GetUserContext(c),
		"Flash": flash.Get(c),
		"Plans": plans,
	})
}

// HandleAbout renders the static about page.
func HandleAbout(c *fiber.Ctx) error {
	return c.Render("about", fiber.Map{
		"Title": "A propos",
		"User":  usercontext.GetUserContext(c),
	})
}

// HandleContact renders the static contact page.
func HandleContact(c *fiber.Ctx) error {
	return c.Render("contact", fiber.Map{
		"Title": "Contact",
		"User":  usercontext.GetUserContext(c),
	})
}

package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/didierkasongo/ndaku/app/repository"
	"github.com/didierkasongo/ndaku/internal/pkg/usercontext"
)

// cacheKeyPatterns are the Redis namespaces the marketplace writes to.
var cacheKeyPatterns = []string{
	"statistics:*",
	"billing:*",
	"property:*",
	"agency:*",
}

// CacheEntry is one Redis key shown on the admin cache panel.
type CacheEntry struct {
	Key string
	TTL time.Duration
}

// HandleAdminCache lists the marketplace's Redis keys with their TTLs.
func HandleAdminCache(c *fiber.Ctx) error {
	queueRepo := repository.GetGlobalRepositories().Queue

	keys, err := queueRepo.FindKeysByPatterns(cacheKeyPatterns)
	if err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	entries := make([]CacheEntry, 0, len(keys))
	for _, key := range keys {
		ttl, err := queueRepo.GetTTL(key)
		if err != nil {
			ttl = -1
		}
		entries = append(entries, CacheEntry{Key: key, TTL: ttl})
	}

	return c.Render("admin/cache", fiber.Map{
		"Title":   "Cache",
		"User":    usercontext.GetUserContext(c),
		"Flash":   flash.Get(c),
		"Csrf":    c.Locals("csrf"),
		"Entries": entries,
	})
}

// HandleAdminCachePurge drops the cached statistics so they rebuild on the
// next request. Counter and lock keys are left alone.
func HandleAdminCachePurge(c *fiber.Ctx) error {
	queueRepo := repository.GetGlobalRepositories().Queue

	keys, err := queueRepo.FindKeysByPatterns([]string{"statistics:*"})
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/admin/cache")
	}

	deleted, err := queueRepo.DeleteKeys(keys)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/admin/cache")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": fmt.Sprintf("%d cles supprimees", deleted),
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/cache")
}

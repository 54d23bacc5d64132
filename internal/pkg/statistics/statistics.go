package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/didierkasongo/ndaku/app/models"
	"github.com/didierkasongo/ndaku/internal/pkg/cache"
	"github.com/didierkasongo/ndaku/internal/pkg/database"
)

const (
	CacheKeyPropertiesTotal = "statistics:properties:total"
	CacheKeyPropertiesDaily = "statistics:properties:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyUsers           = "statistics:users:total"
	CacheKeyAgencies        = "statistics:agencies:total"
	CacheExpiration         = 30 * time.Minute
)

// StatisticsData holds the aggregate counters shown on the start page
type StatisticsData struct {
	TodayProperties int
	TotalUsers      int
	TotalProperties int
	TotalAgencies   int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cache refresh interval has elapsed
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the statistics cache when it is stale
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next UpdateCacheIfNeeded to refresh
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalProperties int64
	if err := db.Model(&models.Property{}).Count(&totalProperties).Error; err != nil {
		log.Printf("Error counting total properties: %v", err)
		return err
	}

	var todayProperties int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.Property{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayProperties).Error; err != nil {
		log.Printf("Error counting today's properties: %v", err)
		return err
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting total users: %v", err)
		return err
	}

	var totalAgencies int64
	if err := db.Model(&models.Agency{}).Count(&totalAgencies).Error; err != nil {
		log.Printf("Error counting total agencies: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyPropertiesTotal, strconv.FormatInt(totalProperties, 10), CacheExpiration); err != nil {
		return err
	}

	dailyKey := fmt.Sprintf(CacheKeyPropertiesDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayProperties, 10), CacheExpiration); err != nil {
		return err
	}

	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		return err
	}

	if err := cache.Set(CacheKeyAgencies, strconv.FormatInt(totalAgencies, 10), CacheExpiration); err != nil {
		return err
	}

	return nil
}

// GetTotalProperties returns the total number of listings from cache or database
func GetTotalProperties() int {
	return cachedCount(CacheKeyPropertiesTotal, func() (int64, error) {
		var count int64
		err := database.GetDB().Model(&models.Property{}).Count(&count).Error
		return count, err
	})
}

// GetTodayProperties returns the number of listings created today from cache or database
func GetTodayProperties() int {
	today := time.Now().Format("2006-01-02")
	dailyKey := fmt.Sprintf(CacheKeyPropertiesDaily, today)
	return cachedCount(dailyKey, func() (int64, error) {
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)
		var count int64
		err := database.GetDB().Model(&models.Property{}).
			Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error
		return count, err
	})
}

// GetTotalUsers returns the total number of users from cache or database
func GetTotalUsers() int {
	return cachedCount(CacheKeyUsers, func() (int64, error) {
		var count int64
		err := database.GetDB().Model(&models.User{}).Count(&count).Error
		return count, err
	})
}

// GetTotalAgencies returns the total number of agencies from cache or database
func GetTotalAgencies() int {
	return cachedCount(CacheKeyAgencies, func() (int64, error) {
		var count int64
		err := database.GetDB().Model(&models.Agency{}).Count(&count).Error
		return count, err
	})
}

// GetStatisticsData returns all statistics for the start page
func GetStatisticsData() StatisticsData {
	return StatisticsData{
		TodayProperties: GetTodayProperties(),
		TotalUsers:      GetTotalUsers(),
		TotalProperties: GetTotalProperties(),
		TotalAgencies:   GetTotalAgencies(),
	}
}

// cachedCount reads a counter from cache, falling back to the database and
// repopulating the cache on miss.
func cachedCount(key string, load func() (int64, error)) int {
	val, err := cache.Get(key)
	if err != nil {
		count, dbErr := load()
		if dbErr != nil {
			log.Printf("Error loading counter %s: %v", key, dbErr)
			return 0
		}
		if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching counter %s: %v", key, err)
		}
		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return int(count)
}

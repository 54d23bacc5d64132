package models

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Setting represents a system setting row
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer, float
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppSettings represents the application settings structure.
// AutoSubscriptionActivation controls whether incoming payment confirmations
// activate the matching subscription immediately or queue as pending for
// manual review. Consumers read one snapshot per request via Snapshot().
type AppSettings struct {
	SiteTitle                  string `json:"site_title" validate:"required,min=1,max=255"`
	SiteDescription            string `json:"site_description" validate:"max=500"`
	PropertyListingEnabled     bool   `json:"property_listing_enabled"`
	AutoSubscriptionActivation bool   `json:"auto_subscription_activation"`
	mu                         sync.RWMutex
}

// Global settings instance
var (
	appSettings *AppSettings
	settingsMu  sync.RWMutex
)

// GetAppSettings returns the current application settings
func GetAppSettings() *AppSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return appSettings
}

// LoadSettings loads settings from database into memory
func LoadSettings(db *gorm.DB) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	// Initialize with defaults
	appSettings = &AppSettings{
		SiteTitle:                  "Ndaku",
		SiteDescription:            "Real-estate marketplace",
		PropertyListingEnabled:     true,
		AutoSubscriptionActivation: true,
	}

	// Load settings from database
	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Apply loaded settings
	for _, setting := range settings {
		switch setting.Key {
		case "site_title":
			appSettings.SiteTitle = setting.Value
		case "site_description":
			appSettings.SiteDescription = setting.Value
		case "property_listing_enabled":
			appSettings.PropertyListingEnabled = setting.Value == "true"
		case "auto_subscription_activation":
			appSettings.AutoSubscriptionActivation = setting.Value == "true"
		}
	}

	return nil
}

// SaveSettings saves current settings to database
func SaveSettings(db *gorm.DB, settings *AppSettings) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	// Validate settings
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Convert settings to database format
	settingsMap := map[string]interface{}{
		"site_title":                   settings.SiteTitle,
		"site_description":             settings.SiteDescription,
		"property_listing_enabled":     fmt.Sprintf("%t", settings.PropertyListingEnabled),
		"auto_subscription_activation": fmt.Sprintf("%t", settings.AutoSubscriptionActivation),
	}

	// Save each setting
	for key, value := range settingsMap {
		var setting Setting
		result := db.Where("setting_key = ?", key).First(&setting)

		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				setting = Setting{
					Key:   key,
					Value: fmt.Sprintf("%v", value),
					Type:  getSettingType(key),
				}
				if err := db.Create(&setting).Error; err != nil {
					return fmt.Errorf("failed to create setting %s: %w", key, err)
				}
			} else {
				return fmt.Errorf("failed to query setting %s: %w", key, result.Error)
			}
		} else {
			setting.Value = fmt.Sprintf("%v", value)
			if err := db.Save(&setting).Error; err != nil {
				return fmt.Errorf("failed to update setting %s: %w", key, err)
			}
		}
	}

	// Update global settings
	appSettings = settings
	return nil
}

// getSettingType returns the type of a setting based on its key
func getSettingType(key string) string {
	switch key {
	case "site_title", "site_description":
		return "string"
	case "property_listing_enabled", "auto_subscription_activation":
		return "boolean"
	default:
		return "string"
	}
}

// Validate validates the settings
func (s *AppSettings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// ToJSON converts settings to JSON
func (s *AppSettings) ToJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s)
}

// Snapshot returns a copy of the mutable fields so a request handler works
// against one consistent view of the configuration.
func (s *AppSettings) Snapshot() AppSettingsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AppSettingsSnapshot{
		SiteTitle:                  s.SiteTitle,
		SiteDescription:            s.SiteDescription,
		PropertyListingEnabled:     s.PropertyListingEnabled,
		AutoSubscriptionActivation: s.AutoSubscriptionActivation,
	}
}

// AppSettingsSnapshot is an immutable copy of AppSettings.
type AppSettingsSnapshot struct {
	SiteTitle                  string
	SiteDescription            string
	PropertyListingEnabled     bool
	AutoSubscriptionActivation bool
}

// GetSiteTitle returns the site title
func (s *AppSettings) GetSiteTitle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SiteTitle
}

// IsAutoSubscriptionActivationEnabled reports whether confirmed payments
// auto-trigger subscription activation.
func (s *AppSettings) IsAutoSubscriptionActivationEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.AutoSubscriptionActivation
}

// SetAutoSubscriptionActivation flips the auto-activation toggle. Only future
// payment confirmations are affected; no subscription state is touched.
func (s *AppSettings) SetAutoSubscriptionActivation(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AutoSubscriptionActivation = enabled
}

package repository

import (
	"strings"

	"github.com/didierkasongo/ndaku/app/models"
	"gorm.io/gorm"
)

// propertyRepository implements the PropertyRepository interface
type propertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository creates a new property repository instance
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

// Create creates a new property listing in the database
func (r *propertyRepository) Create(property *models.Property) error {
	return r.db.Create(property).Error
}

// GetByID retrieves a property by its ID
func (r *propertyRepository) GetByID(id uint) (*models.Property, error) {
	var property models.Property
	err := r.db.First(&property, id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetByAgencyID retrieves a paginated list of an agency's properties
func (r *propertyRepository) GetByAgencyID(agencyID uint, offset, limit int) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.Where("agency_id = ?", agencyID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&properties).Error
	return properties, err
}

// GetByOwnerID retrieves a paginated list of an owner's properties
func (r *propertyRepository) GetByOwnerID(ownerID uint, offset, limit int) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&properties).Error
	return properties, err
}

// Update updates an existing property in the database
func (r *propertyRepository) Update(property *models.Property) error {
	return r.db.Save(property).Error
}

// Delete soft deletes a property by its ID
func (r *propertyRepository) Delete(id uint) error {
	return r.db.Delete(&models.Property{}, id).Error
}

// List retrieves a paginated list of properties
func (r *propertyRepository) List(offset, limit int) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&properties).Error
	return properties, err
}

// ListAvailable retrieves active listings still on the market
func (r *propertyRepository) ListAvailable(offset, limit int) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.Where("status = ? AND is_active = ?", models.PropertyStatusAvailable, true).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&properties).Error
	return properties, err
}

// Count returns the total number of properties
func (r *propertyRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Property{}).Count(&count).Error
	return count, err
}

// CountActiveByOwner counts the owner's active properties for quota checks
func (r *propertyRepository) CountActiveByOwner(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Property{}).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Count(&count).Error
	return count, err
}

// Search searches for properties by title or city
func (r *propertyRepository) Search(query string) ([]models.Property, error) {
	var properties []models.Property
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("title LIKE ? OR city LIKE ?", searchPattern, searchPattern).Find(&properties).Error
	return properties, err
}

// UpdateStatus sets the market status of a property
func (r *propertyRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Property{}).Where("id = ?", id).Update("status", status).Error
}

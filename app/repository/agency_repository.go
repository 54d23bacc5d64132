package repository

import (
	"strings"

	"github.com/didierkasongo/ndaku/app/models"
	"gorm.io/gorm"
)

// agencyRepository implements the AgencyRepository interface
type agencyRepository struct {
	db *gorm.DB
}

// NewAgencyRepository creates a new agency repository instance
func NewAgencyRepository(db *gorm.DB) AgencyRepository {
	return &agencyRepository{db: db}
}

// Create creates a new agency in the database
func (r *agencyRepository) Create(agency *models.Agency) error {
	return r.db.Create(agency).Error
}

// GetByID retrieves an agency by its ID
func (r *agencyRepository) GetByID(id uint) (*models.Agency, error) {
	var agency models.Agency
	err := r.db.First(&agency, id).Error
	if err != nil {
		return nil, err
	}
	return &agency, nil
}

// GetByOwnerID retrieves all agencies owned by a user
func (r *agencyRepository) GetByOwnerID(ownerID uint) ([]models.Agency, error) {
	var agencies []models.Agency
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at ASC").Find(&agencies).Error
	return agencies, err
}

// Update updates an existing agency in the database
func (r *agencyRepository) Update(agency *models.Agency) error {
	return r.db.Save(agency).Error
}

// Delete soft deletes an agency by its ID
func (r *agencyRepository) Delete(id uint) error {
	return r.db.Delete(&models.Agency{}, id).Error
}

// List retrieves a paginated list of agencies
func (r *agencyRepository) List(offset, limit int) ([]models.Agency, error) {
	var agencies []models.Agency
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&agencies).Error
	return agencies, err
}

// Count returns the total number of agencies
func (r *agencyRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Agency{}).Count(&count).Error
	return count, err
}

// CountActiveByOwner counts the owner's active agencies for quota checks
func (r *agencyRepository) CountActiveByOwner(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Agency{}).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Count(&count).Error
	return count, err
}

// Search searches for agencies by name or city
func (r *agencyRepository) Search(query string) ([]models.Agency, error) {
	var agencies []models.Agency
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("name LIKE ? OR city LIKE ?", searchPattern, searchPattern).Find(&agencies).Error
	return agencies, err
}

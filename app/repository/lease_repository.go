package repository

import (
	"time"

	"github.com/didierkasongo/ndaku/app/models"
	"gorm.io/gorm"
)

// leaseRepository implements the LeaseRepository interface
type leaseRepository struct {
	db *gorm.DB
}

// NewLeaseRepository creates a new lease repository instance
func NewLeaseRepository(db *gorm.DB) LeaseRepository {
	return &leaseRepository{db: db}
}

// Create creates a new lease in the database
func (r *leaseRepository) Create(lease *models.Lease) error {
	return r.db.Create(lease).Error
}

// GetByID retrieves a lease by its ID
func (r *leaseRepository) GetByID(id uint) (*models.Lease, error) {
	var lease models.Lease
	err := r.db.First(&lease, id).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

// GetByPropertyID retrieves all leases for a property
func (r *leaseRepository) GetByPropertyID(propertyID uint) ([]models.Lease, error) {
	var leases []models.Lease
	err := r.db.Where("property_id = ?", propertyID).Order("start_date DESC").Find(&leases).Error
	return leases, err
}

// GetByOwnerID retrieves all leases managed by an owner
func (r *leaseRepository) GetByOwnerID(ownerID uint) ([]models.Lease, error) {
	var leases []models.Lease
	err := r.db.Where("owner_id = ?", ownerID).Order("start_date DESC").Find(&leases).Error
	return leases, err
}

// Update updates an existing lease in the database
func (r *leaseRepository) Update(lease *models.Lease) error {
	return r.db.Save(lease).Error
}

// Delete soft deletes a lease by its ID
func (r *leaseRepository) Delete(id uint) error {
	return r.db.Delete(&models.Lease{}, id).Error
}

// CountActiveByOwner counts the owner's active leases for quota checks
func (r *leaseRepository) CountActiveByOwner(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Lease{}).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Count(&count).Error
	return count, err
}

// ListEndingBefore retrieves active leases whose end date falls before cutoff
func (r *leaseRepository) ListEndingBefore(cutoff time.Time) ([]models.Lease, error) {
	var leases []models.Lease
	err := r.db.Where("status = ? AND end_date IS NOT NULL AND end_date < ?",
		models.LeaseStatusActive, cutoff).Find(&leases).Error
	return leases, err
}

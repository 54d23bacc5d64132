package repository

import (
	"time"

	"github.com/didierkasongo/ndaku/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	ListByAgency(agencyID uint) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// AgencyRepository defines the interface for agency-related database operations
type AgencyRepository interface {
	Create(agency *models.Agency) error
	GetByID(id uint) (*models.Agency, error)
	GetByOwnerID(ownerID uint) ([]models.Agency, error)
	Update(agency *models.Agency) error
	Delete(id uint) error
	List(offset, limit int) ([]models.Agency, error)
	Count() (int64, error)
	CountActiveByOwner(ownerID uint) (int64, error)
	Search(query string) ([]models.Agency, error)
}

// PropertyRepository defines the interface for property listing operations
type PropertyRepository interface {
	Create(property *models.Property) error
	GetByID(id uint) (*models.Property, error)
	GetByAgencyID(agencyID uint, offset, limit int) ([]models.Property, error)
	GetByOwnerID(ownerID uint, offset, limit int) ([]models.Property, error)
	Update(property *models.Property) error
	Delete(id uint) error
	List(offset, limit int) ([]models.Property, error)
	ListAvailable(offset, limit int) ([]models.Property, error)
	Count() (int64, error)
	CountActiveByOwner(ownerID uint) (int64, error)
	Search(query string) ([]models.Property, error)
	UpdateStatus(id uint, status string) error
}

// LeaseRepository defines the interface for lease operations
type LeaseRepository interface {
	Create(lease *models.Lease) error
	GetByID(id uint) (*models.Lease, error)
	GetByPropertyID(propertyID uint) ([]models.Lease, error)
	GetByOwnerID(ownerID uint) ([]models.Lease, error)
	Update(lease *models.Lease) error
	Delete(id uint) error
	CountActiveByOwner(ownerID uint) (int64, error)
	ListEndingBefore(cutoff time.Time) ([]models.Lease, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// QueueRepository defines the Redis key operations behind the admin cache
// monitor: pattern scan, TTL inspection and batched purge.
type QueueRepository interface {
	FindKeysByPatterns(patterns []string) ([]string, error)
	GetTTL(key string) (time.Duration, error)
	DeleteKeys(keys []string) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User     UserRepository
	Agency   AgencyRepository
	Property PropertyRepository
	Lease    LeaseRepository
	Setting  SettingRepository
	Queue    QueueRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Agency:   NewAgencyRepository(db),
		Property: NewPropertyRepository(db),
		Lease:    NewLeaseRepository(db),
		Setting:  NewSettingRepository(db),
		Queue:    NewQueueRepository(),
	}
}

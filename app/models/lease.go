package models

import (
	"time"

	"gorm.io/gorm"
)

// Lease states. These are distinct from subscription and billing statuses.
const (
	LeaseStatusDraft      = "draft"
	LeaseStatusActive     = "active"
	LeaseStatusTerminated = "terminated"
)

// Lease binds a tenant to a property for a period with a monthly rent.
type Lease struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	PropertyID  uint           `gorm:"not null;index" json:"property_id"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	TenantName  string         `gorm:"type:varchar(200);not null" json:"tenant_name"`
	TenantPhone string         `gorm:"type:varchar(30)" json:"tenant_phone"`
	MonthlyRent int64          `gorm:"not null;default:0" json:"monthly_rent"`
	Status      string         `gorm:"type:varchar(30);default:'draft';index" json:"status"`
	StartDate   time.Time      `gorm:"not null" json:"start_date"`
	EndDate     *time.Time     `gorm:"type:timestamp;default:null" json:"end_date,omitempty"`
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Property listing states.
const (
	PropertyStatusAvailable = "available"
	PropertyStatusRented    = "rented"
	PropertyStatusSold      = "sold"
)

// Property is a listed unit (house, apartment, plot) managed by an agency.
type Property struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AgencyID    uint           `gorm:"not null;index" json:"agency_id"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=3,max=200"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Type        string         `gorm:"type:varchar(50);index" json:"type"`
	Status      string         `gorm:"type:varchar(30);default:'available';index" json:"status"`
	Price       int64          `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	City        string         `gorm:"type:varchar(100);index" json:"city" validate:"max=100"`
	Address     string         `gorm:"type:varchar(255)" json:"address" validate:"max=255"`
	Bedrooms    int            `gorm:"default:0" json:"bedrooms"`
	Bathrooms   int            `gorm:"default:0" json:"bathrooms"`
	SurfaceM2   int            `gorm:"default:0" json:"surface_m2"`
	ViewCount   int64          `gorm:"not null;default:0" json:"view_count"`
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Property) Validate() error {
	v := validator.New()
	return v.Struct(p)
}

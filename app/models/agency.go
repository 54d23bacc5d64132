package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Agency is a real-estate agency owned by a subscriber. The owner's
// subscription quotas bound how many active agencies, properties and leases
// the agency tree may hold.
type Agency struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	Name        string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Description string         `gorm:"type:text" json:"description,omitempty" validate:"max=2000"`
	Email       string         `gorm:"type:varchar(200)" json:"email" validate:"omitempty,email"`
	Phone       string         `gorm:"type:varchar(30)" json:"phone" validate:"max=30"`
	City        string         `gorm:"type:varchar(100);index" json:"city" validate:"max=100"`
	Address     string         `gorm:"type:varchar(255)" json:"address" validate:"max=255"`
	LogoURL     string         `gorm:"type:varchar(255)" json:"logo_url,omitempty" validate:"max=255"`
	IsVerified  bool           `gorm:"default:false" json:"is_verified"`
	ViewCount   int64          `gorm:"not null;default:0" json:"view_count"`
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Agency) Validate() error {
	v := validator.New()
	return v.Struct(a)
}

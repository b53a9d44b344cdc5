package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/henryhq/entitlements/internal/catalog"
	"gorm.io/datatypes"
)

type Account struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	Email string       `gorm:"not null;uniqueIndex" json:"email"`
	Name  string       `gorm:"not null" json:"name"`

	BaseTier catalog.Tier `gorm:"column:base_tier;type:text;not null" json:"base_tier"`

	// Beta override fields. A set override tier supersedes the base tier
	// until beta_expires_at; a nil expiry never lapses.
	BetaOverrideTier    *catalog.Tier `gorm:"column:beta_override_tier;type:text" json:"beta_override_tier,omitempty"`
	BetaExpiresAt       *time.Time    `gorm:"column:beta_expires_at" json:"beta_expires_at,omitempty"`
	BetaDiscountPercent *int          `gorm:"column:beta_discount_percent" json:"beta_discount_percent,omitempty"`
	Beta                bool          `gorm:"not null;default:false" json:"beta"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

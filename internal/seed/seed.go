package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/henryhq/entitlements/internal/account/domain"
	"github.com/henryhq/entitlements/internal/catalog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type demoAccount struct {
	email    string
	name     string
	baseTier catalog.Tier
	override *catalog.Tier
}

func tierPtr(t catalog.Tier) *catalog.Tier { return &t }

var demoAccounts = []demoAccount{
	{email: "sourcer@henryhq.dev", name: "Demo Sourcer", baseTier: catalog.TierSourcer},
	{email: "recruiter@henryhq.dev", name: "Demo Recruiter", baseTier: catalog.TierRecruiter},
	{email: "principal@henryhq.dev", name: "Demo Principal", baseTier: catalog.TierPrincipal},
	{email: "beta@henryhq.dev", name: "Demo Beta", baseTier: catalog.TierSourcer, override: tierPtr(catalog.TierCoach)},
}

// EnsureDemoAccounts seeds a handful of accounts for local development.
// Existing emails are left untouched so reruns are safe.
func EnsureDemoAccounts(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, demo := range demoAccounts {
			var existing accountdomain.Account
			err := tx.WithContext(ctx).
				Where("email = ?", demo.email).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			account := accountdomain.Account{
				ID:        node.Generate(),
				Email:     demo.email,
				Name:      demo.name,
				BaseTier:  demo.baseTier,
				Metadata:  datatypes.JSONMap{"seed": true},
				CreatedAt: now,
				UpdatedAt: now,
			}
			if demo.override != nil {
				account.BetaOverrideTier = demo.override
				account.Beta = true
			}
			if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

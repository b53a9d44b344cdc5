package beta

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/henryhq/entitlements/internal/account/domain"
	"github.com/henryhq/entitlements/internal/catalog"
	"github.com/henryhq/entitlements/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NamedOverride is a per-account beta grant applied verbatim. A nil
// ExpiresAt never lapses.
type NamedOverride struct {
	Tier            catalog.Tier `json:"tier"`
	ExpiresAt       *time.Time   `json:"expires_at,omitempty"`
	DiscountPercent *int         `json:"discount_percent,omitempty"`
}

// DefaultOverride is applied to every pre-launch account without a named
// entry; expiry is computed from the launch date.
type DefaultOverride struct {
	Tier                   catalog.Tier `json:"tier"`
	ExpiresDaysAfterLaunch int          `json:"expires_days_after_launch"`
	DiscountPercent        *int         `json:"discount_percent,omitempty"`
}

type Request struct {
	LaunchDate     time.Time                      `json:"launch_date"`
	NamedOverrides map[snowflake.ID]NamedOverride `json:"-"`
	Default        DefaultOverride                `json:"default"`
}

type Result struct {
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
}

var (
	ErrInvalidLaunchDate = errors.New("invalid_launch_date")
	ErrInvalidTier       = errors.New("invalid_tier")
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  accountdomain.Repository
}

// Migrator flags pre-launch accounts as beta and grants their override
// tier. It runs once at launch; re-runs skip accounts already flagged so
// an adjusted account is never overwritten.
type Migrator struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  accountdomain.Repository
}

func NewMigrator(p Params) *Migrator {
	return &Migrator{
		db:    p.DB,
		log:   p.Log.Named("beta.migrator"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (m *Migrator) Migrate(ctx context.Context, req Request) (Result, error) {
	if req.LaunchDate.IsZero() {
		return Result{}, ErrInvalidLaunchDate
	}
	if !catalog.ValidTier(req.Default.Tier) {
		return Result{}, ErrInvalidTier
	}
	for _, override := range req.NamedOverrides {
		if !catalog.ValidTier(override.Tier) {
			return Result{}, ErrInvalidTier
		}
	}

	accounts, err := m.repo.ListCreatedBefore(ctx, m.db, req.LaunchDate)
	if err != nil {
		return Result{}, err
	}

	defaultExpiry := req.LaunchDate.AddDate(0, 0, req.Default.ExpiresDaysAfterLaunch)
	now := m.clock.Now().UTC()

	var result Result
	for i := range accounts {
		account := accounts[i]
		if account.Beta {
			result.Skipped++
			continue
		}

		if override, ok := req.NamedOverrides[account.ID]; ok {
			tier := override.Tier
			account.BetaOverrideTier = &tier
			account.BetaExpiresAt = override.ExpiresAt
			account.BetaDiscountPercent = override.DiscountPercent
		} else {
			tier := req.Default.Tier
			expiry := defaultExpiry
			account.BetaOverrideTier = &tier
			account.BetaExpiresAt = &expiry
			account.BetaDiscountPercent = req.Default.DiscountPercent
		}

		account.Beta = true
		account.UpdatedAt = now
		if err := m.repo.Update(ctx, m.db, &account); err != nil {
			return result, err
		}
		result.Migrated++
	}

	m.log.Info("beta migration finished",
		zap.Time("launch_date", req.LaunchDate),
		zap.Int("migrated", result.Migrated),
		zap.Int("skipped", result.Skipped))

	return result, nil
}

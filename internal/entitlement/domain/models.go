package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/henryhq/entitlements/internal/account/domain"
	"github.com/henryhq/entitlements/internal/catalog"
)

// AccessResult is the answer to "can this account use feature F right now".
// A denied feature is a normal result, never an error; UpgradeTarget names
// the cheapest tier that fully unlocks the feature when access is not full.
type AccessResult struct {
	Feature       catalog.Feature     `json:"feature"`
	Tier          catalog.Tier        `json:"tier"`
	Level         catalog.AccessLevel `json:"level"`
	Allowed       bool                `json:"allowed"`
	Limited       bool                `json:"limited"`
	UpgradeTarget *catalog.Tier       `json:"upgrade_target,omitempty"`
}

// UsageResult is the answer to "how much of resource R is left this month".
// Remaining is nil for unlimited resources.
type UsageResult struct {
	Resource  catalog.Resource `json:"resource"`
	Tier      catalog.Tier     `json:"tier"`
	Allowed   bool             `json:"allowed"`
	Used      int64            `json:"used"`
	Limit     int64            `json:"limit"`
	Remaining *int64           `json:"remaining"`
	Unlimited bool             `json:"unlimited"`
}

// Summary aggregates every feature and resource decision for one account
// at one instant, for rendering a full entitlement dashboard.
type Summary struct {
	AccountID   snowflake.ID                        `json:"account_id"`
	Tier        catalog.Tier                        `json:"tier"`
	EvaluatedAt time.Time                           `json:"evaluated_at"`
	Features    map[catalog.Feature]AccessResult    `json:"features"`
	Usage       map[catalog.Resource]UsageResult    `json:"usage"`
}

// EffectiveTier resolves the tier that applies to an account at the given
// instant. A set override tier wins until beta_expires_at; a nil expiry
// never lapses. The boundary instant counts as expired. This is the single
// source of truth for "which tier applies right now" and its result must
// never be cached past one evaluation.
func EffectiveTier(account accountdomain.Account, now time.Time) catalog.Tier {
	if account.BetaOverrideTier == nil {
		return account.BaseTier
	}
	if account.BetaExpiresAt == nil {
		return *account.BetaOverrideTier
	}
	if now.Before(*account.BetaExpiresAt) {
		return *account.BetaOverrideTier
	}
	return account.BaseTier
}

package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/henryhq/entitlements/internal/catalog"
)

type Service interface {
	// CheckFeatureAccess resolves the effective tier and reads the access
	// level of one feature. No side effects.
	CheckFeatureAccess(ctx context.Context, accountID snowflake.ID, feature catalog.Feature) (AccessResult, error)

	// CheckUsageLimit reads the consumed count for one resource against the
	// effective tier's monthly cap. Advisory under concurrency; callers
	// needing a hard reservation use TryConsume.
	CheckUsageLimit(ctx context.Context, accountID snowflake.ID, resource catalog.Resource) (UsageResult, error)

	// RecordUsage adds exactly one unit to the current period. It does not
	// enforce the limit; callers record only after the gated action
	// succeeded. Returns the new count.
	RecordUsage(ctx context.Context, accountID snowflake.ID, resource catalog.Resource) (int64, error)

	// TryConsume atomically consumes one unit only while below the cap.
	// The returned result reports whether the unit was consumed.
	TryConsume(ctx context.Context, accountID snowflake.ID, resource catalog.Resource) (UsageResult, error)

	// Summary evaluates every feature and resource at one instant.
	Summary(ctx context.Context, accountID snowflake.ID) (Summary, error)
}

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/henryhq/entitlements/internal/catalog"
	"gorm.io/gorm"
)

type Repository interface {
	// Used reads the consumed count for one resource in one period.
	// A missing row reads as zero and writes nothing.
	Used(ctx context.Context, db *gorm.DB, accountID snowflake.ID, periodStart time.Time, resource catalog.Resource) (int64, error)

	// Period assembles the aggregate for one account month.
	Period(ctx context.Context, db *gorm.DB, accountID snowflake.ID, periodStart, periodEnd time.Time) (UsagePeriod, error)

	// Increment atomically adds delta to the counter, creating the row if
	// absent, and returns the new count. Concurrent increments must not
	// lose updates.
	Increment(ctx context.Context, db *gorm.DB, counter UsageCounter, delta int64) (int64, error)

	// IncrementIfBelow is the hard-cap variant: a single atomic
	// increment-if-below-limit operation. It reports whether the unit was
	// consumed and the count after the operation.
	IncrementIfBelow(ctx context.Context, db *gorm.DB, counter UsageCounter, delta, limit int64) (bool, int64, error)
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/henryhq/entitlements/internal/catalog"
	"github.com/henryhq/entitlements/internal/usage/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Used(ctx context.Context, db *gorm.DB, accountID snowflake.ID, periodStart time.Time, resource catalog.Resource) (int64, error) {
	var counter domain.UsageCounter
	err := db.WithContext(ctx).
		Where("account_id = ? AND period_start = ? AND resource = ?", accountID, periodStart, resource).
		Take(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return counter.Used, nil
}

func (r *repo) Period(ctx context.Context, db *gorm.DB, accountID snowflake.ID, periodStart, periodEnd time.Time) (domain.UsagePeriod, error) {
	var counters []domain.UsageCounter
	err := db.WithContext(ctx).
		Where("account_id = ? AND period_start = ?", accountID, periodStart).
		Find(&counters).Error
	if err != nil {
		return domain.UsagePeriod{}, err
	}

	period := domain.UsagePeriod{
		AccountID:   accountID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Counts:      make(map[catalog.Resource]int64, len(counters)),
	}
	for _, c := range counters {
		period.Counts[c.Resource] = c.Used
	}
	return period, nil
}

// Increment is a single upsert so concurrent calls for the same key
// serialize at the storage layer instead of racing in application code.
// The conflict syntax below is shared by postgres and sqlite.
func (r *repo) Increment(ctx context.Context, db *gorm.DB, counter domain.UsageCounter, delta int64) (int64, error) {
	var used int64
	err := db.WithContext(ctx).Raw(
		`INSERT INTO usage_counters (id, account_id, period_start, period_end, resource, used, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (account_id, period_start, resource)
		 DO UPDATE SET used = usage_counters.used + excluded.used, updated_at = excluded.updated_at
		 RETURNING used`,
		counter.ID,
		counter.AccountID,
		counter.PeriodStart,
		counter.PeriodEnd,
		counter.Resource,
		delta,
		counter.CreatedAt,
		counter.UpdatedAt,
	).Scan(&used).Error
	if err != nil {
		return 0, err
	}
	return used, nil
}

func (r *repo) IncrementIfBelow(ctx context.Context, db *gorm.DB, counter domain.UsageCounter, delta, limit int64) (bool, int64, error) {
	if delta <= 0 {
		return false, 0, errors.New("invalid_delta")
	}
	if limit < delta {
		used, err := r.Used(ctx, db, counter.AccountID, counter.PeriodStart, counter.Resource)
		return false, used, err
	}

	var used int64
	result := db.WithContext(ctx).Raw(
		`INSERT INTO usage_counters (id, account_id, period_start, period_end, resource, used, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (account_id, period_start, resource)
		 DO UPDATE SET used = usage_counters.used + excluded.used, updated_at = excluded.updated_at
		 WHERE usage_counters.used + excluded.used <= ?
		 RETURNING used`,
		counter.ID,
		counter.AccountID,
		counter.PeriodStart,
		counter.PeriodEnd,
		counter.Resource,
		delta,
		counter.CreatedAt,
		counter.UpdatedAt,
		limit,
	).Scan(&used)
	if result.Error != nil {
		return false, 0, result.Error
	}
	if result.RowsAffected == 0 {
		current, err := r.Used(ctx, db, counter.AccountID, counter.PeriodStart, counter.Resource)
		return false, current, err
	}
	return true, used, nil
}

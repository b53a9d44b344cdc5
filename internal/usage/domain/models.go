package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/henryhq/entitlements/internal/catalog"
)

// UsageCounter is one row of monthly consumption: (account, period, resource).
// Rows are created lazily on first increment, never deleted, and never
// mutated once their month has ended.
type UsageCounter struct {
	ID          snowflake.ID     `gorm:"primaryKey" json:"id"`
	AccountID   snowflake.ID     `gorm:"column:account_id;not null;uniqueIndex:ux_usage_counters_key,priority:1" json:"account_id"`
	PeriodStart time.Time        `gorm:"column:period_start;not null;uniqueIndex:ux_usage_counters_key,priority:2" json:"period_start"`
	PeriodEnd   time.Time        `gorm:"column:period_end;not null" json:"period_end"`
	Resource    catalog.Resource `gorm:"type:text;not null;uniqueIndex:ux_usage_counters_key,priority:3" json:"resource"`
	Used        int64            `gorm:"not null;default:0" json:"used"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (UsageCounter) TableName() string { return "usage_counters" }

// UsagePeriod is the aggregate view of one account's month, assembled
// from the counter rows. Resources never incremented read as zero.
type UsagePeriod struct {
	AccountID   snowflake.ID               `json:"account_id"`
	PeriodStart time.Time                  `json:"period_start"`
	PeriodEnd   time.Time                  `json:"period_end"`
	Counts      map[catalog.Resource]int64 `json:"counts"`
}

// PeriodBounds returns the calendar-month window containing now: start is
// the first instant of the month (inclusive), end the first instant of the
// next month (exclusive). Periods are always computed in UTC.
func PeriodBounds(now time.Time) (start, end time.Time) {
	now = now.UTC()
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

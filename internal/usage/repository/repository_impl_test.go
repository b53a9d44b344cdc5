package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/henryhq/entitlements/internal/catalog"
	"github.com/henryhq/entitlements/internal/usage/domain"
	"gorm.io/gorm"
)

func setupRepo(t *testing.T) (domain.Repository, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error

	if err := db.AutoMigrate(&domain.UsageCounter{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	return Provide(), db, node
}

func counterFor(node *snowflake.Node, accountID snowflake.ID, now time.Time, resource catalog.Resource) domain.UsageCounter {
	start, end := domain.PeriodBounds(now)
	return domain.UsageCounter{
		ID:          node.Generate(),
		AccountID:   accountID,
		PeriodStart: start,
		PeriodEnd:   end,
		Resource:    resource,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
}

func TestUsedMissingRowReadsZero(t *testing.T) {
	repo, db, node := setupRepo(t)
	ctx := context.Background()

	accountID := node.Generate()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	start, _ := domain.PeriodBounds(now)

	used, err := repo.Used(ctx, db, accountID, start, catalog.ResourceApplications)
	if err != nil {
		t.Fatalf("Used: %v", err)
	}
	if used != 0 {
		t.Fatalf("expected 0 used, got %d", used)
	}

	// Reading must not create the row.
	var count int64
	if err := db.Model(&domain.UsageCounter{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("read created %d rows", count)
	}
}

func TestIncrementCreatesAndAccumulates(t *testing.T) {
	repo, db, node := setupRepo(t)
	ctx := context.Background()

	accountID := node.Generate()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := int64(1); i <= 5; i++ {
		got, err := repo.Increment(ctx, db, counterFor(node, accountID, now, catalog.ResourceApplications), 1)
		if err != nil {
			t.Fatalf("Increment #%d: %v", i, err)
		}
		if got != i {
			t.Fatalf("Increment #%d returned %d", i, got)
		}
	}

	start, _ := domain.PeriodBounds(now)
	used, err := repo.Used(ctx, db, accountID, start, catalog.ResourceApplications)
	if err != nil {
		t.Fatalf("Used: %v", err)
	}
	if used != 5 {
		t.Fatalf("expected 5 used, got %d", used)
	}
}

func TestIncrementConcurrentLosesNoUpdates(t *testing.T) {
	repo, db, node := setupRepo(t)
	ctx := context.Background()

	accountID := node.Generate()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Increment(ctx, db, counterFor(node, accountID, now, catalog.ResourceResumes), 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Increment: %v", err)
	}

	start, _ := domain.PeriodBounds(now)
	used, err := repo.Used(ctx, db, accountID, start, catalog.ResourceResumes)
	if err != nil {
		t.Fatalf("Used: %v", err)
	}
	if used != workers {
		t.Fatalf("expected %d used, got %d", workers, used)
	}
}

func TestIncrementIfBelowStopsAtLimit(t *testing.T) {
	repo, db, node := setupRepo(t)
	ctx := context.Background()

	accountID := node.Generate()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	const limit = 3

	for i := int64(1); i <= limit; i++ {
		ok, got, err := repo.IncrementIfBelow(ctx, db, counterFor(node, accountID, now, catalog.ResourceMockInterviews), 1, limit)
		if err != nil {
			t.Fatalf("IncrementIfBelow #%d: %v", i, err)
		}
		if !ok || got != i {
			t.Fatalf("IncrementIfBelow #%d: ok=%v used=%d", i, ok, got)
		}
	}

	ok, got, err := repo.IncrementIfBelow(ctx, db, counterFor(node, accountID, now, catalog.ResourceMockInterviews), 1, limit)
	if err != nil {
		t.Fatalf("IncrementIfBelow over limit: %v", err)
	}
	if ok {
		t.Fatal("consumed past the limit")
	}
	if got != limit {
		t.Fatalf("expected used=%d at cap, got %d", limit, got)
	}
}

func TestIncrementIfBelowZeroLimit(t *testing.T) {
	repo, db, node := setupRepo(t)
	ctx := context.Background()

	accountID := node.Generate()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	ok, got, err := repo.IncrementIfBelow(ctx, db, counterFor(node, accountID, now, catalog.ResourceCoachingSessions), 1, 0)
	if err != nil {
		t.Fatalf("IncrementIfBelow: %v", err)
	}
	if ok || got != 0 {
		t.Fatalf("expected no consumption at zero limit, ok=%v used=%d", ok, got)
	}
}

func TestMonthlyRollover(t *testing.T) {
	repo, db, node := setupRepo(t)
	ctx := context.Background()

	accountID := node.Generate()
	march := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 15; i++ {
		if _, err := repo.Increment(ctx, db, counterFor(node, accountID, march, catalog.ResourceResumes), 1); err != nil {
			t.Fatalf("Increment: %v", err)
		}
	}

	aprilStart, _ := domain.PeriodBounds(april)
	used, err := repo.Used(ctx, db, accountID, aprilStart, catalog.ResourceResumes)
	if err != nil {
		t.Fatalf("Used: %v", err)
	}
	if used != 0 {
		t.Fatalf("usage carried over into new month: %d", used)
	}

	// Prior month rows stay intact.
	marchStart, _ := domain.PeriodBounds(march)
	used, err = repo.Used(ctx, db, accountID, marchStart, catalog.ResourceResumes)
	if err != nil {
		t.Fatalf("Used: %v", err)
	}
	if used != 15 {
		t.Fatalf("prior month corrupted: %d", used)
	}
}

func TestPeriodAggregate(t *testing.T) {
	repo, db, node := setupRepo(t)
	ctx := context.Background()

	accountID := node.Generate()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if _, err := repo.Increment(ctx, db, counterFor(node, accountID, now, catalog.ResourceApplications), 2); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if _, err := repo.Increment(ctx, db, counterFor(node, accountID, now, catalog.ResourceHenryConversations), 7); err != nil {
		t.Fatalf("Increment: %v", err)
	}

	start, end := domain.PeriodBounds(now)
	period, err := repo.Period(ctx, db, accountID, start, end)
	if err != nil {
		t.Fatalf("Period: %v", err)
	}
	if period.Counts[catalog.ResourceApplications] != 2 {
		t.Fatalf("applications = %d", period.Counts[catalog.ResourceApplications])
	}
	if period.Counts[catalog.ResourceHenryConversations] != 7 {
		t.Fatalf("henry_conversations = %d", period.Counts[catalog.ResourceHenryConversations])
	}
	if _, ok := period.Counts[catalog.ResourceResumes]; ok {
		t.Fatal("unexpected resumes entry")
	}
}

func TestPeriodBounds(t *testing.T) {
	now := time.Date(2026, 12, 15, 8, 30, 0, 0, time.UTC)
	start, end := domain.PeriodBounds(now)
	if !start.Equal(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	if !end.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", end)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/henryhq/entitlements/internal/account/domain"
	accountrepo "github.com/henryhq/entitlements/internal/account/repository"
	"github.com/henryhq/entitlements/internal/catalog"
	"github.com/henryhq/entitlements/internal/clock"
	"github.com/henryhq/entitlements/internal/entitlement/domain"
	usagerepo "github.com/henryhq/entitlements/internal/usage/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	usagedomain "github.com/henryhq/entitlements/internal/usage/domain"
)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
}

func setup(t *testing.T) *fixture {
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

	if err := db.AutoMigrate(&accountdomain.Account{}, &usagedomain.UsageCounter{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Catalog:     catalog.Default(),
		AccountRepo: accountrepo.Provide(),
		UsageRepo:   usagerepo.Provide(),
	})

	return &fixture{svc: svc, db: db, node: node, clock: fake}
}

func (f *fixture) createAccount(t *testing.T, account accountdomain.Account) snowflake.ID {
	t.Helper()
	if account.ID == 0 {
		account.ID = f.node.Generate()
	}
	if account.Email == "" {
		account.Email = fmt.Sprintf("%d@example.com", account.ID)
	}
	if account.Name == "" {
		account.Name = "Test Account"
	}
	if account.Metadata == nil {
		account.Metadata = datatypes.JSONMap{}
	}
	now := f.clock.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	if err := f.db.Create(&account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account.ID
}

func tierPtr(t catalog.Tier) *catalog.Tier { return &t }

func TestCheckUsageLimitFreshAccount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.createAccount(t, accountdomain.Account{BaseTier: catalog.TierSourcer})

	result, err := f.svc.CheckUsageLimit(ctx, id, catalog.ResourceApplications)
	if err != nil {
		t.Fatalf("CheckUsageLimit: %v", err)
	}
	if !result.Allowed || result.Used != 0 || result.Limit != 3 || result.Unlimited {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Remaining == nil || *result.Remaining != 3 {
		t.Fatalf("remaining = %v", result.Remaining)
	}
}

func TestUsageExhaustion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.createAccount(t, accountdomain.Account{BaseTier: catalog.TierSourcer})

	for i := 1; i <= 3; i++ {
		used, err := f.svc.RecordUsage(ctx, id, catalog.ResourceApplications)
		if err != nil {
			t.Fatalf("RecordUsage #%d: %v", i, err)
		}
		if used != int64(i) {
			t.Fatalf("RecordUsage #%d returned %d", i, used)
		}
	}

	result, err := f.svc.CheckUsageLimit(ctx, id, catalog.ResourceApplications)
	if err != nil {
		t.Fatalf("CheckUsageLimit: %v", err)
	}
	if result.Allowed || result.Used != 3 || result.Limit != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Remaining == nil || *result.Remaining != 0 {
		t.Fatalf("remaining = %v", result.Remaining)
	}
}

func TestRecordUsageDoesNotEnforceLimit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.createAccount(t, accountdomain.Account{BaseTier: catalog.TierSourcer})

	// Soft-limit policy: the recorder itself never refuses.
	for i := 1; i <= 5; i++ {
		if _, err := f.svc.RecordUsage(ctx, id, catalog.ResourceApplications); err != nil {
			t.Fatalf("RecordUsage #%d: %v", i, err)
		}
	}

	result, err := f.svc.CheckUsageLimit(ctx, id, catalog.ResourceApplications)
	if err != nil {
		t.Fatalf("CheckUsageLimit: %v", err)
	}
	if result.Used != 5 || result.Allowed {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Remaining == nil || *result.Remaining != 0 {
		t.Fatalf("remaining must clamp at zero, got %v", result.Remaining)
	}
}

func TestExpiredBetaOverrideFallsBack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	yesterday := f.clock.Now().Add(-24 * time.Hour)
	id := f.createAccount(t, accountdomain.Account{
		BaseTier:         catalog.TierSourcer,
		BetaOverrideTier: tierPtr(catalog.TierCoach),
		BetaExpiresAt:    &yesterday,
		Beta:             true,
	})

	summary, err := f.svc.Summary(ctx, id)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Tier != catalog.TierSourcer {
		t.Fatalf("effective tier = %s, want sourcer", summary.Tier)
	}
}

func TestActiveBetaOverrideUnlocksUsage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tomorrow := f.clock.Now().Add(24 * time.Hour)
	id := f.createAccount(t, accountdomain.Account{
		BaseTier:         catalog.TierSourcer,
		BetaOverrideTier: tierPtr(catalog.TierCoach),
		BetaExpiresAt:    &tomorrow,
		Beta:             true,
	})

	result, err := f.svc.CheckUsageLimit(ctx, id, catalog.ResourceApplications)
	if err != nil {
		t.Fatalf("CheckUsageLimit: %v", err)
	}
	if !result.Unlimited || !result.Allowed || result.Remaining != nil {
		t.Fatalf("unexpected result: %+v", result)
	}

	// The override is re-resolved on every call: after expiry the same
	// account drops back to the sourcer limits.
	f.clock.Advance(48 * time.Hour)
	result, err = f.svc.CheckUsageLimit(ctx, id, catalog.ResourceApplications)
	if err != nil {
		t.Fatalf("CheckUsageLimit: %v", err)
	}
	if result.Unlimited || result.Limit != 3 {
		t.Fatalf("unexpected result after expiry: %+v", result)
	}
}

func TestFeatureAccessLimitedWithUpgradeTarget(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.createAccount(t, accountdomain.Account{BaseTier: catalog.TierRecruiter})

	result, err := f.svc.CheckFeatureAccess(ctx, id, catalog.FeatureOutreachTemplates)
	if err != nil {
		t.Fatalf("CheckFeatureAccess: %v", err)
	}
	if !result.Allowed || !result.Limited {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.UpgradeTarget == nil || *result.UpgradeTarget != catalog.TierPrincipal {
		t.Fatalf("upgrade target = %v, want principal", result.UpgradeTarget)
	}
}

func TestFeatureAccessDeniedWithUpgradeTarget(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.createAccount(t, accountdomain.Account{BaseTier: catalog.TierSourcer})

	result, err := f.svc.CheckFeatureAccess(ctx, id, catalog.FeatureDocumentRefinement)
	if err != nil {
		t.Fatalf("CheckFeatureAccess: %v", err)
	}
	if result.Allowed || result.Limited {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.UpgradeTarget == nil || *result.UpgradeTarget != catalog.TierPartner {
		t.Fatalf("upgrade target = %v, want partner", result.UpgradeTarget)
	}
}

func TestFeatureAccessAllowed(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.createAccount(t, accountdomain.Account{BaseTier: catalog.TierSourcer})

	result, err := f.svc.CheckFeatureAccess(ctx, id, catalog.FeaturePipelineTracker)
	if err != nil {
		t.Fatalf("CheckFeatureAccess: %v", err)
	}
	if !result.Allowed || result.Limited || result.UpgradeTarget != nil {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestMonthlyRollover(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.createAccount(t, accountdomain.Account{BaseTier: catalog.TierPrincipal})

	for i := 0; i < 15; i++ {
		if _, err := f.svc.RecordUsage(ctx, id, catalog.ResourceResumes); err != nil {
			t.Fatalf("RecordUsage: %v", err)
		}
	}

	result, err := f.svc.CheckUsageLimit(ctx, id, catalog.ResourceResumes)
	if err != nil {
		t.Fatalf("CheckUsageLimit: %v", err)
	}
	if result.Allowed || result.Used != 15 {
		t.Fatalf("unexpected result: %+v", result)
	}

	f.clock.Set(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	result, err = f.svc.CheckUsageLimit(ctx, id, catalog.ResourceResumes)
	if err != nil {
		t.Fatalf("CheckUsageLimit: %v", err)
	}
	if !result.Allowed || result.Used != 0 || result.Limit != 15 {
		t.Fatalf("unexpected rollover result: %+v", result)
	}
	if result.Remaining == nil || *result.Remaining != 15 {
		t.Fatalf("remaining = %v", result.Remaining)
	}
}

func TestTryConsumeHardCap(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.createAccount(t, accountdomain.Account{BaseTier: catalog.TierSourcer})

	for i := int64(1); i <= 3; i++ {
		result, err := f.svc.TryConsume(ctx, id, catalog.ResourceApplications)
		if err != nil {
			t.Fatalf("TryConsume #%d: %v", i, err)
		}
		if !result.Allowed || result.Used != i {
			t.Fatalf("TryConsume #%d: %+v", i, result)
		}
	}

	result, err := f.svc.TryConsume(ctx, id, catalog.ResourceApplications)
	if err != nil {
		t.Fatalf("TryConsume over cap: %v", err)
	}
	if result.Allowed {
		t.Fatal("consumed past the hard cap")
	}
	if result.Used != 3 {
		t.Fatalf("used = %d after cap", result.Used)
	}
}

func TestTryConsumeUnlimited(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.createAccount(t, accountdomain.Account{BaseTier: catalog.TierCoach})

	for i := int64(1); i <= 10; i++ {
		result, err := f.svc.TryConsume(ctx, id, catalog.ResourceApplications)
		if err != nil {
			t.Fatalf("TryConsume #%d: %v", i, err)
		}
		if !result.Allowed || !result.Unlimited || result.Used != i {
			t.Fatalf("TryConsume #%d: %+v", i, result)
		}
	}
}

func TestSummaryAggregatesEverything(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.createAccount(t, accountdomain.Account{BaseTier: catalog.TierRecruiter})

	if _, err := f.svc.RecordUsage(ctx, id, catalog.ResourceApplications); err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}

	summary, err := f.svc.Summary(ctx, id)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Tier != catalog.TierRecruiter {
		t.Fatalf("tier = %s", summary.Tier)
	}
	if len(summary.Features) != len(catalog.Default().Features()) {
		t.Fatalf("features = %d", len(summary.Features))
	}
	if len(summary.Usage) != len(catalog.Default().Resources()) {
		t.Fatalf("usage = %d", len(summary.Usage))
	}
	if summary.Usage[catalog.ResourceApplications].Used != 1 {
		t.Fatalf("applications used = %d", summary.Usage[catalog.ResourceApplications].Used)
	}
	if summary.Usage[catalog.ResourceResumes].Used != 0 {
		t.Fatalf("resumes used = %d", summary.Usage[catalog.ResourceResumes].Used)
	}
	outreach := summary.Features[catalog.FeatureOutreachTemplates]
	if !outreach.Limited || outreach.UpgradeTarget == nil || *outreach.UpgradeTarget != catalog.TierPrincipal {
		t.Fatalf("outreach_templates = %+v", outreach)
	}
}

func TestUnknownIdentifiersFailLoudly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.createAccount(t, accountdomain.Account{BaseTier: catalog.TierSourcer})

	if _, err := f.svc.CheckFeatureAccess(ctx, id, catalog.Feature("time_travel")); !errors.Is(err, catalog.ErrUnknownFeature) {
		t.Fatalf("expected unknown_feature, got %v", err)
	}
	if _, err := f.svc.CheckUsageLimit(ctx, id, catalog.Resource("teleports")); !errors.Is(err, catalog.ErrUnknownResource) {
		t.Fatalf("expected unknown_resource, got %v", err)
	}
	if _, err := f.svc.RecordUsage(ctx, id, catalog.Resource("teleports")); !errors.Is(err, catalog.ErrUnknownResource) {
		t.Fatalf("expected unknown_resource, got %v", err)
	}
}

func TestAccountNotFound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	missing := f.node.Generate()
	if _, err := f.svc.Summary(ctx, missing); !errors.Is(err, accountdomain.ErrAccountNotFound) {
		t.Fatalf("expected account_not_found, got %v", err)
	}
	if _, err := f.svc.CheckFeatureAccess(ctx, missing, catalog.FeaturePipelineTracker); !errors.Is(err, accountdomain.ErrAccountNotFound) {
		t.Fatalf("expected account_not_found, got %v", err)
	}
}

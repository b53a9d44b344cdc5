package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/henryhq/entitlements/internal/account/domain"
	"github.com/henryhq/entitlements/internal/catalog"
	"github.com/henryhq/entitlements/internal/clock"
	"github.com/henryhq/entitlements/internal/entitlement/domain"
	obsmetrics "github.com/henryhq/entitlements/internal/observability/metrics"
	usagedomain "github.com/henryhq/entitlements/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Catalog     *catalog.Catalog
	AccountRepo accountdomain.Repository
	UsageRepo   usagedomain.Repository
	Metrics     *obsmetrics.EngineMetrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	catalog     *catalog.Catalog
	accountRepo accountdomain.Repository
	usageRepo   usagedomain.Repository
	metrics     *obsmetrics.EngineMetrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("entitlement.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		catalog:     p.Catalog,
		accountRepo: p.AccountRepo,
		usageRepo:   p.UsageRepo,
		metrics:     p.Metrics,
	}
}

func (s *Service) getAccount(ctx context.Context, id snowflake.ID) (accountdomain.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return accountdomain.Account{}, err
	}
	if account == nil {
		return accountdomain.Account{}, accountdomain.ErrAccountNotFound
	}
	return *account, nil
}

func (s *Service) CheckFeatureAccess(ctx context.Context, accountID snowflake.ID, feature catalog.Feature) (domain.AccessResult, error) {
	if !s.catalog.KnownFeature(feature) {
		return domain.AccessResult{}, catalog.ErrUnknownFeature
	}

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return domain.AccessResult{}, err
	}

	result, err := s.featureAccess(account, feature, s.clock.Now())
	if err != nil {
		return domain.AccessResult{}, err
	}

	s.metrics.RecordFeatureCheck(string(feature), string(result.Level))
	return result, nil
}

func (s *Service) featureAccess(account accountdomain.Account, feature catalog.Feature, now time.Time) (domain.AccessResult, error) {
	tier := domain.EffectiveTier(account, now)

	level, err := s.catalog.Access(tier, feature)
	if err != nil {
		return domain.AccessResult{}, err
	}

	result := domain.AccessResult{
		Feature: feature,
		Tier:    tier,
		Level:   level,
	}

	switch level {
	case catalog.AccessAllowed:
		result.Allowed = true
	case catalog.AccessLimited:
		result.Allowed = true
		result.Limited = true
		target, err := s.catalog.LowestTierAllowingAbove(tier, feature)
		if err != nil {
			return domain.AccessResult{}, err
		}
		result.UpgradeTarget = &target
	case catalog.AccessDenied:
		target, err := s.catalog.LowestTierAllowing(feature)
		if err != nil {
			return domain.AccessResult{}, err
		}
		result.UpgradeTarget = &target
	}

	return result, nil
}

func (s *Service) CheckUsageLimit(ctx context.Context, accountID snowflake.ID, resource catalog.Resource) (domain.UsageResult, error) {
	if !s.catalog.KnownResource(resource) {
		return domain.UsageResult{}, catalog.ErrUnknownResource
	}

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return domain.UsageResult{}, err
	}

	now := s.clock.Now()
	tier := domain.EffectiveTier(account, now)

	limit, err := s.catalog.Limit(tier, resource)
	if err != nil {
		return domain.UsageResult{}, err
	}

	periodStart, _ := usagedomain.PeriodBounds(now)
	used, err := s.usageRepo.Used(ctx, s.db, accountID, periodStart, resource)
	if err != nil {
		return domain.UsageResult{}, err
	}

	result := buildUsageResult(tier, resource, used, limit)
	s.metrics.RecordUsageCheck(string(resource), result.Allowed)
	return result, nil
}

func buildUsageResult(tier catalog.Tier, resource catalog.Resource, used, limit int64) domain.UsageResult {
	result := domain.UsageResult{
		Resource: resource,
		Tier:     tier,
		Used:     used,
		Limit:    limit,
	}
	if limit == catalog.Unlimited {
		result.Allowed = true
		result.Unlimited = true
		return result
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	result.Remaining = &remaining
	result.Allowed = used < limit
	return result
}

func (s *Service) RecordUsage(ctx context.Context, accountID snowflake.ID, resource catalog.Resource) (int64, error) {
	if !s.catalog.KnownResource(resource) {
		return 0, catalog.ErrUnknownResource
	}

	if _, err := s.getAccount(ctx, accountID); err != nil {
		return 0, err
	}

	now := s.clock.Now()
	used, err := s.usageRepo.Increment(ctx, s.db, s.newCounter(accountID, resource, now), 1)
	if err != nil {
		return 0, err
	}

	s.metrics.RecordUsageRecorded(string(resource))
	s.log.Debug("usage recorded",
		zap.Int64("account_id", accountID.Int64()),
		zap.String("resource", string(resource)),
		zap.Int64("used", used))

	return used, nil
}

func (s *Service) TryConsume(ctx context.Context, accountID snowflake.ID, resource catalog.Resource) (domain.UsageResult, error) {
	if !s.catalog.KnownResource(resource) {
		return domain.UsageResult{}, catalog.ErrUnknownResource
	}

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return domain.UsageResult{}, err
	}

	now := s.clock.Now()
	tier := domain.EffectiveTier(account, now)

	limit, err := s.catalog.Limit(tier, resource)
	if err != nil {
		return domain.UsageResult{}, err
	}

	if limit == catalog.Unlimited {
		used, err := s.usageRepo.Increment(ctx, s.db, s.newCounter(accountID, resource, now), 1)
		if err != nil {
			return domain.UsageResult{}, err
		}
		s.metrics.RecordUsageRecorded(string(resource))
		return buildUsageResult(tier, resource, used, limit), nil
	}

	consumed, used, err := s.usageRepo.IncrementIfBelow(ctx, s.db, s.newCounter(accountID, resource, now), 1, limit)
	if err != nil {
		return domain.UsageResult{}, err
	}

	result := buildUsageResult(tier, resource, used, limit)
	result.Allowed = consumed
	if consumed {
		s.metrics.RecordUsageRecorded(string(resource))
	}
	s.metrics.RecordUsageCheck(string(resource), consumed)
	return result, nil
}

func (s *Service) Summary(ctx context.Context, accountID snowflake.ID) (domain.Summary, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return domain.Summary{}, err
	}

	now := s.clock.Now()
	tier := domain.EffectiveTier(account, now)

	summary := domain.Summary{
		AccountID:   accountID,
		Tier:        tier,
		EvaluatedAt: now.UTC(),
		Features:    make(map[catalog.Feature]domain.AccessResult),
		Usage:       make(map[catalog.Resource]domain.UsageResult),
	}

	for _, feature := range s.catalog.Features() {
		result, err := s.featureAccess(account, feature, now)
		if err != nil {
			return domain.Summary{}, err
		}
		summary.Features[feature] = result
	}

	periodStart, periodEnd := usagedomain.PeriodBounds(now)
	period, err := s.usageRepo.Period(ctx, s.db, accountID, periodStart, periodEnd)
	if err != nil {
		return domain.Summary{}, err
	}

	for _, resource := range s.catalog.Resources() {
		limit, err := s.catalog.Limit(tier, resource)
		if err != nil {
			return domain.Summary{}, err
		}
		summary.Usage[resource] = buildUsageResult(tier, resource, period.Counts[resource], limit)
	}

	return summary, nil
}

func (s *Service) newCounter(accountID snowflake.ID, resource catalog.Resource, now time.Time) usagedomain.UsageCounter {
	start, end := usagedomain.PeriodBounds(now)
	return usagedomain.UsageCounter{
		ID:          s.genID.Generate(),
		AccountID:   accountID,
		PeriodStart: start,
		PeriodEnd:   end,
		Resource:    resource,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
}

package catalog

import (
	"errors"
	"fmt"
)

type Tier string

const (
	TierSourcer   Tier = "sourcer"
	TierRecruiter Tier = "recruiter"
	TierPrincipal Tier = "principal"
	TierPartner   Tier = "partner"
	TierCoach     Tier = "coach"
)

// tierOrder is the strict total order of tiers, lowest first.
var tierOrder = []Tier{TierSourcer, TierRecruiter, TierPrincipal, TierPartner, TierCoach}

type Resource string

const (
	ResourceApplications       Resource = "applications"
	ResourceResumes            Resource = "resumes"
	ResourceCoverLetters       Resource = "cover_letters"
	ResourceHenryConversations Resource = "henry_conversations"
	ResourceMockInterviews     Resource = "mock_interviews"
	ResourceCoachingSessions   Resource = "coaching_sessions"
)

type Feature string

const (
	FeatureScreeningQuestions Feature = "screening_questions"
	FeatureOutreachTemplates  Feature = "outreach_templates"
	FeatureDocumentRefinement Feature = "document_refinement"
	FeaturePatternAnalysis    Feature = "pattern_analysis"
	FeatureLiveCoaching       Feature = "live_coaching"
	FeatureInterviewPrep      Feature = "interview_prep"
	FeaturePipelineTracker    Feature = "pipeline_tracker"
	FeaturePrioritySupport    Feature = "priority_support"
)

type AccessLevel string

const (
	AccessAllowed AccessLevel = "allowed"
	AccessLimited AccessLevel = "limited"
	AccessDenied  AccessLevel = "denied"
)

// Unlimited is the limit sentinel for resources with no monthly cap.
const Unlimited int64 = -1

var (
	ErrUnknownTier     = errors.New("unknown_tier")
	ErrUnknownFeature  = errors.New("unknown_feature")
	ErrUnknownResource = errors.New("unknown_resource")
)

// TierDefinition is one row of the plan table. MonthlyPriceCents is
// informational only and never enforced here.
type TierDefinition struct {
	Tier              Tier                    `mapstructure:"tier" json:"tier"`
	MonthlyPriceCents int64                   `mapstructure:"monthly_price_cents" json:"monthly_price_cents"`
	Limits            map[Resource]int64      `mapstructure:"limits" json:"limits"`
	Features          map[Feature]AccessLevel `mapstructure:"features" json:"features"`
}

// Catalog is the process-wide plan table. It is built once at startup,
// validated, and never mutated afterwards.
type Catalog struct {
	definitions map[Tier]TierDefinition
}

func New(definitions []TierDefinition) (*Catalog, error) {
	byTier := make(map[Tier]TierDefinition, len(definitions))
	for _, def := range definitions {
		if _, ok := byTier[def.Tier]; ok {
			return nil, fmt.Errorf("duplicate tier definition: %s", def.Tier)
		}
		byTier[def.Tier] = def
	}

	c := &Catalog{definitions: byTier}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Tiers returns the tiers in rank order, lowest first.
func (c *Catalog) Tiers() []Tier {
	out := make([]Tier, len(tierOrder))
	copy(out, tierOrder)
	return out
}

// Rank returns the position of tier in the total order, 0 being the lowest.
func Rank(tier Tier) (int, error) {
	for i, t := range tierOrder {
		if t == tier {
			return i, nil
		}
	}
	return 0, ErrUnknownTier
}

// ValidTier reports whether tier is one of the configured tiers.
func ValidTier(tier Tier) bool {
	_, err := Rank(tier)
	return err == nil
}

func (c *Catalog) Definition(tier Tier) (TierDefinition, error) {
	def, ok := c.definitions[tier]
	if !ok {
		return TierDefinition{}, ErrUnknownTier
	}
	return def, nil
}

// KnownFeature reports whether code is part of the configured feature set.
func (c *Catalog) KnownFeature(code Feature) bool {
	def := c.definitions[tierOrder[0]]
	_, ok := def.Features[code]
	return ok
}

// KnownResource reports whether code is part of the configured resource set.
func (c *Catalog) KnownResource(code Resource) bool {
	def := c.definitions[tierOrder[0]]
	_, ok := def.Limits[code]
	return ok
}

// Features returns the configured feature codes in a stable order.
func (c *Catalog) Features() []Feature {
	return []Feature{
		FeatureScreeningQuestions,
		FeatureOutreachTemplates,
		FeatureDocumentRefinement,
		FeaturePatternAnalysis,
		FeatureLiveCoaching,
		FeatureInterviewPrep,
		FeaturePipelineTracker,
		FeaturePrioritySupport,
	}
}

// Resources returns the configured resource codes in a stable order.
func (c *Catalog) Resources() []Resource {
	return []Resource{
		ResourceApplications,
		ResourceResumes,
		ResourceCoverLetters,
		ResourceHenryConversations,
		ResourceMockInterviews,
		ResourceCoachingSessions,
	}
}

// Access returns the access level of feature at tier. Unknown identifiers
// are configuration bugs and fail loudly rather than defaulting.
func (c *Catalog) Access(tier Tier, feature Feature) (AccessLevel, error) {
	def, err := c.Definition(tier)
	if err != nil {
		return "", err
	}
	level, ok := def.Features[feature]
	if !ok {
		return "", ErrUnknownFeature
	}
	return level, nil
}

// Limit returns the monthly cap of resource at tier. Unlimited means no cap.
func (c *Catalog) Limit(tier Tier, resource Resource) (int64, error) {
	def, err := c.Definition(tier)
	if err != nil {
		return 0, err
	}
	limit, ok := def.Limits[resource]
	if !ok {
		return 0, ErrUnknownResource
	}
	return limit, nil
}

// LowestTierAllowing scans the tier order bottom-up and returns the first
// tier at which feature is allowed. The validation invariant that coach
// allows every feature guarantees a result for known features.
func (c *Catalog) LowestTierAllowing(feature Feature) (Tier, error) {
	if !c.KnownFeature(feature) {
		return "", ErrUnknownFeature
	}
	for _, tier := range tierOrder {
		level, err := c.Access(tier, feature)
		if err != nil {
			return "", err
		}
		if level == AccessAllowed {
			return tier, nil
		}
	}
	return "", fmt.Errorf("no tier allows feature %s", feature)
}

// LowestTierAllowingAbove is LowestTierAllowing restricted to tiers
// strictly above the given one.
func (c *Catalog) LowestTierAllowingAbove(current Tier, feature Feature) (Tier, error) {
	if !c.KnownFeature(feature) {
		return "", ErrUnknownFeature
	}
	rank, err := Rank(current)
	if err != nil {
		return "", err
	}
	for _, tier := range tierOrder[rank+1:] {
		level, err := c.Access(tier, feature)
		if err != nil {
			return "", err
		}
		if level == AccessAllowed {
			return tier, nil
		}
	}
	return "", fmt.Errorf("no tier above %s allows feature %s", current, feature)
}

// validate enforces the invariants every loaded catalog must hold:
// a definition for every tier, the same feature and resource sets at
// every tier, coach allowing every feature, and access monotonicity
// (once allowed at a tier, allowed at every higher tier).
func (c *Catalog) validate() error {
	base, ok := c.definitions[tierOrder[0]]
	if !ok {
		return fmt.Errorf("missing tier definition: %s", tierOrder[0])
	}

	for _, tier := range tierOrder {
		def, ok := c.definitions[tier]
		if !ok {
			return fmt.Errorf("missing tier definition: %s", tier)
		}
		if len(def.Features) != len(base.Features) {
			return fmt.Errorf("tier %s: feature set differs from %s", tier, base.Tier)
		}
		for feature := range base.Features {
			if _, ok := def.Features[feature]; !ok {
				return fmt.Errorf("tier %s: missing feature %s", tier, feature)
			}
		}
		if len(def.Limits) != len(base.Limits) {
			return fmt.Errorf("tier %s: resource set differs from %s", tier, base.Tier)
		}
		for resource, limit := range def.Limits {
			if _, ok := base.Limits[resource]; !ok {
				return fmt.Errorf("tier %s: unexpected resource %s", tier, resource)
			}
			if limit < 0 && limit != Unlimited {
				return fmt.Errorf("tier %s: invalid limit %d for %s", tier, limit, resource)
			}
		}
		for feature, level := range def.Features {
			switch level {
			case AccessAllowed, AccessLimited, AccessDenied:
			default:
				return fmt.Errorf("tier %s: invalid access level %q for %s", tier, level, feature)
			}
		}
	}

	top := c.definitions[tierOrder[len(tierOrder)-1]]
	for feature, level := range top.Features {
		if level != AccessAllowed {
			return fmt.Errorf("tier %s must allow feature %s", top.Tier, feature)
		}
	}

	// Monotonicity: tiers strictly add capability, never remove it.
	for feature := range base.Features {
		allowed := false
		for _, tier := range tierOrder {
			level := c.definitions[tier].Features[feature]
			if allowed && level != AccessAllowed {
				return fmt.Errorf("feature %s: access not monotonic at tier %s", feature, tier)
			}
			if level == AccessAllowed {
				allowed = true
			}
		}
	}

	return nil
}

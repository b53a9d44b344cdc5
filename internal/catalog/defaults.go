package catalog

// DefaultDefinitions is the compiled-in plan table used when no catalog
// file is configured. Prices are informational only.
func DefaultDefinitions() []TierDefinition {
	return []TierDefinition{
		{
			Tier:              TierSourcer,
			MonthlyPriceCents: 0,
			Limits: map[Resource]int64{
				ResourceApplications:       3,
				ResourceResumes:            1,
				ResourceCoverLetters:       1,
				ResourceHenryConversations: 10,
				ResourceMockInterviews:     0,
				ResourceCoachingSessions:   0,
			},
			Features: map[Feature]AccessLevel{
				FeatureScreeningQuestions: AccessLimited,
				FeatureOutreachTemplates:  AccessDenied,
				FeatureDocumentRefinement: AccessDenied,
				FeaturePatternAnalysis:    AccessDenied,
				FeatureLiveCoaching:       AccessDenied,
				FeatureInterviewPrep:      AccessLimited,
				FeaturePipelineTracker:    AccessAllowed,
				FeaturePrioritySupport:    AccessDenied,
			},
		},
		{
			Tier:              TierRecruiter,
			MonthlyPriceCents: 2900,
			Limits: map[Resource]int64{
				ResourceApplications:       25,
				ResourceResumes:            5,
				ResourceCoverLetters:       5,
				ResourceHenryConversations: 50,
				ResourceMockInterviews:     2,
				ResourceCoachingSessions:   0,
			},
			Features: map[Feature]AccessLevel{
				FeatureScreeningQuestions: AccessAllowed,
				FeatureOutreachTemplates:  AccessLimited,
				FeatureDocumentRefinement: AccessDenied,
				FeaturePatternAnalysis:    AccessDenied,
				FeatureLiveCoaching:       AccessDenied,
				FeatureInterviewPrep:      AccessLimited,
				FeaturePipelineTracker:    AccessAllowed,
				FeaturePrioritySupport:    AccessDenied,
			},
		},
		{
			Tier:              TierPrincipal,
			MonthlyPriceCents: 5900,
			Limits: map[Resource]int64{
				ResourceApplications:       100,
				ResourceResumes:            15,
				ResourceCoverLetters:       15,
				ResourceHenryConversations: 200,
				ResourceMockInterviews:     5,
				ResourceCoachingSessions:   1,
			},
			Features: map[Feature]AccessLevel{
				FeatureScreeningQuestions: AccessAllowed,
				FeatureOutreachTemplates:  AccessAllowed,
				FeatureDocumentRefinement: AccessDenied,
				FeaturePatternAnalysis:    AccessLimited,
				FeatureLiveCoaching:       AccessDenied,
				FeatureInterviewPrep:      AccessAllowed,
				FeaturePipelineTracker:    AccessAllowed,
				FeaturePrioritySupport:    AccessDenied,
			},
		},
		{
			Tier:              TierPartner,
			MonthlyPriceCents: 9900,
			Limits: map[Resource]int64{
				ResourceApplications:       Unlimited,
				ResourceResumes:            Unlimited,
				ResourceCoverLetters:       Unlimited,
				ResourceHenryConversations: Unlimited,
				ResourceMockInterviews:     15,
				ResourceCoachingSessions:   2,
			},
			Features: map[Feature]AccessLevel{
				FeatureScreeningQuestions: AccessAllowed,
				FeatureOutreachTemplates:  AccessAllowed,
				FeatureDocumentRefinement: AccessAllowed,
				FeaturePatternAnalysis:    AccessAllowed,
				FeatureLiveCoaching:       AccessLimited,
				FeatureInterviewPrep:      AccessAllowed,
				FeaturePipelineTracker:    AccessAllowed,
				FeaturePrioritySupport:    AccessAllowed,
			},
		},
		{
			Tier:              TierCoach,
			MonthlyPriceCents: 19900,
			Limits: map[Resource]int64{
				ResourceApplications:       Unlimited,
				ResourceResumes:            Unlimited,
				ResourceCoverLetters:       Unlimited,
				ResourceHenryConversations: Unlimited,
				ResourceMockInterviews:     Unlimited,
				ResourceCoachingSessions:   Unlimited,
			},
			Features: map[Feature]AccessLevel{
				FeatureScreeningQuestions: AccessAllowed,
				FeatureOutreachTemplates:  AccessAllowed,
				FeatureDocumentRefinement: AccessAllowed,
				FeaturePatternAnalysis:    AccessAllowed,
				FeatureLiveCoaching:       AccessAllowed,
				FeatureInterviewPrep:      AccessAllowed,
				FeaturePipelineTracker:    AccessAllowed,
				FeaturePrioritySupport:    AccessAllowed,
			},
		},
	}
}

// Default builds the compiled-in catalog. Panics only if the built-in
// table itself is inconsistent, which is a programming error.
func Default() *Catalog {
	c, err := New(DefaultDefinitions())
	if err != nil {
		panic(err)
	}
	return c
}

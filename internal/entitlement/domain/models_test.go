package domain

import (
	"testing"
	"time"

	accountdomain "github.com/henryhq/entitlements/internal/account/domain"
	"github.com/henryhq/entitlements/internal/catalog"
)

func tierPtr(t catalog.Tier) *catalog.Tier { return &t }

func TestEffectiveTier(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(24 * time.Hour)

	cases := []struct {
		name    string
		account accountdomain.Account
		at      time.Time
		want    catalog.Tier
	}{
		{
			name:    "no override",
			account: accountdomain.Account{BaseTier: catalog.TierSourcer},
			at:      now,
			want:    catalog.TierSourcer,
		},
		{
			name: "permanent override",
			account: accountdomain.Account{
				BaseTier:         catalog.TierSourcer,
				BetaOverrideTier: tierPtr(catalog.TierCoach),
			},
			at:   now.AddDate(10, 0, 0),
			want: catalog.TierCoach,
		},
		{
			name: "override active before expiry",
			account: accountdomain.Account{
				BaseTier:         catalog.TierRecruiter,
				BetaOverrideTier: tierPtr(catalog.TierPartner),
				BetaExpiresAt:    &expiry,
			},
			at:   now,
			want: catalog.TierPartner,
		},
		{
			name: "override lapsed at boundary",
			account: accountdomain.Account{
				BaseTier:         catalog.TierRecruiter,
				BetaOverrideTier: tierPtr(catalog.TierPartner),
				BetaExpiresAt:    &expiry,
			},
			at:   expiry,
			want: catalog.TierRecruiter,
		},
		{
			name: "override lapsed after expiry",
			account: accountdomain.Account{
				BaseTier:         catalog.TierSourcer,
				BetaOverrideTier: tierPtr(catalog.TierCoach),
				BetaExpiresAt:    &expiry,
			},
			at:   expiry.Add(time.Hour),
			want: catalog.TierSourcer,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EffectiveTier(tc.account, tc.at)
			if got != tc.want {
				t.Fatalf("EffectiveTier = %s, want %s", got, tc.want)
			}
		})
	}
}

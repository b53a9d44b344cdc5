package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/henryhq/entitlements/internal/beta"
	"github.com/henryhq/entitlements/internal/catalog"
)

type namedOverrideRequest struct {
	Tier            string     `json:"tier"`
	ExpiresAt       *time.Time `json:"expires_at"`
	DiscountPercent *int       `json:"discount_percent"`
}

type migrateBetaRequest struct {
	LaunchDate     time.Time                       `json:"launch_date"`
	NamedOverrides map[string]namedOverrideRequest `json:"named_overrides"`
	Default        struct {
		Tier                   string `json:"tier"`
		ExpiresDaysAfterLaunch int    `json:"expires_days_after_launch"`
		DiscountPercent        *int   `json:"discount_percent"`
	} `json:"default"`
}

func (s *Server) MigrateBetaAccounts(c *gin.Context) {
	var req migrateBetaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	overrides := make(map[snowflake.ID]beta.NamedOverride, len(req.NamedOverrides))
	for rawID, override := range req.NamedOverrides {
		id, err := snowflake.ParseString(strings.TrimSpace(rawID))
		if err != nil {
			AbortWithError(c, newValidationError("named_overrides", "invalid_id", "account id is invalid"))
			return
		}
		overrides[id] = beta.NamedOverride{
			Tier:            catalog.Tier(strings.TrimSpace(override.Tier)),
			ExpiresAt:       override.ExpiresAt,
			DiscountPercent: override.DiscountPercent,
		}
	}

	result, err := s.migrator.Migrate(c.Request.Context(), beta.Request{
		LaunchDate:     req.LaunchDate,
		NamedOverrides: overrides,
		Default: beta.DefaultOverride{
			Tier:                   catalog.Tier(strings.TrimSpace(req.Default.Tier)),
			ExpiresDaysAfterLaunch: req.Default.ExpiresDaysAfterLaunch,
			DiscountPercent:        req.Default.DiscountPercent,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

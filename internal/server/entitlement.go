package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/henryhq/entitlements/internal/catalog"
)

func (s *Server) GetEntitlementSummary(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	resp, err := s.entitlementSvc.Summary(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CheckFeatureAccess(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	code := catalog.Feature(strings.TrimSpace(c.Param("code")))
	resp, err := s.entitlementSvc.CheckFeatureAccess(c.Request.Context(), id, code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CheckUsageLimit(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	resource := catalog.Resource(strings.TrimSpace(c.Param("resource")))
	resp, err := s.entitlementSvc.CheckUsageLimit(c.Request.Context(), id, resource)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// RecordUsage adds one unit to the current period. With ?mode=reserve the
// unit is consumed only while below the cap (hard reservation); the
// default path records unconditionally, since callers meter on confirmed
// success of the gated action.
func (s *Server) RecordUsage(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	if s.recordLimiter.Enabled() {
		result, err := s.recordLimiter.Allow(c.Request.Context(), id.String())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !result.Allowed {
			AbortWithError(c, ErrRateLimited)
			return
		}
	}

	resource := catalog.Resource(strings.TrimSpace(c.Param("resource")))
	mode := strings.TrimSpace(c.Query("mode"))

	switch mode {
	case "", "record":
		used, err := s.entitlementSvc.RecordUsage(c.Request.Context(), id, resource)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"resource": resource, "used": used}})
	case "reserve":
		resp, err := s.entitlementSvc.TryConsume(c.Request.Context(), id, resource)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": resp})
	default:
		AbortWithError(c, newValidationError("mode", "invalid_mode", "mode must be record or reserve"))
	}
}

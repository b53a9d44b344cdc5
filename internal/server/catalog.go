package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetCatalog(c *gin.Context) {
	tiers := make([]any, 0, len(s.catalog.Tiers()))
	for _, tier := range s.catalog.Tiers() {
		def, err := s.catalog.Definition(tier)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		tiers = append(tiers, def)
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"tiers": tiers}})
}

package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/engforum/engforum/models"
	"github.com/engforum/engforum/services"
)

const statsCacheTTL = time.Minute

// StatsController provides forum statistics such as counts and daily page views.
type StatsController struct {
	stats      *services.StatsService
	categories *models.CategoryRegistry
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(stats *services.StatsService, categories *models.CategoryRegistry) *StatsController {
	return &StatsController{stats: stats, categories: categories}
}

// GetStats returns aggregate statistics for the forum.
func (s *StatsController) GetStats(ctx *gin.Context) {
	if serveCached(ctx, statsCacheKey) {
		return
	}
	st, err := s.stats.Collect(ctx.Request.Context(), s.categories.Len())
	if err != nil {
		internalError(ctx, 50060, "failed to collect stats", err)
		return
	}
	successCached(ctx, statsCacheKey, st, statsCacheTTL)
}

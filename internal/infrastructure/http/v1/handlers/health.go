// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"tillpoint/internal/core/store"
)

// HealthHandler provides health check endpoints. Readiness depends on
// the meta-database only; per-store pools are opened lazily.
type HealthHandler struct {
	metaPool     *pgxpool.Pool
	storeManager *store.Manager
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(metaPool *pgxpool.Pool, storeManager *store.Manager) *HealthHandler {
	return &HealthHandler{
		metaPool:     metaPool,
		storeManager: storeManager,
	}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe - checks meta-database connection.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.metaPool.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"meta_database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"meta_database": "healthy",
		},
	})
}

// Info returns application information with store pool stats.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	metaStat := h.metaPool.Stat()
	storeStats := h.storeManager.Stats()

	c.JSON(http.StatusOK, gin.H{
		"app":     "tillpoint",
		"version": "0.1.0",
		"meta_database": map[string]any{
			"total_conns":    metaStat.TotalConns(),
			"acquired_conns": metaStat.AcquiredConns(),
			"idle_conns":     metaStat.IdleConns(),
		},
		"stores": map[string]any{
			"active_pools":   storeStats.TotalPools,
			"total_conns":    storeStats.TotalConns,
			"idle_conns":     storeStats.IdleConns,
			"acquired_conns": storeStats.AcquiredConns,
		},
	})
}

// StoresStats returns detailed statistics for all store pools.
// GET /health/stores
func (h *HealthHandler) StoresStats(c *gin.Context) {
	stats := h.storeManager.Stats()

	storeDetails := make([]gin.H, 0, len(stats.Stores))
	for _, s := range stats.Stores {
		storeDetails = append(storeDetails, gin.H{
			"store_id":       s.StoreID,
			"db_name":        s.DBName,
			"total_conns":    s.TotalConns,
			"idle_conns":     s.IdleConns,
			"acquired_conns": s.AcquiredConns,
			"active_refs":    s.ActiveRefs,
			"last_used":      s.LastUsed,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_pools": stats.TotalPools,
		"total_conns": stats.TotalConns,
		"stores":      storeDetails,
	})
}

package handler

import (
	"net/http"
	"runtime"
	"time"

	"cardvault-rest-api/internal/repository"
	"cardvault-rest-api/pkg/response"
)

// AdminHandler handles admin diagnostic HTTP requests.
type AdminHandler struct {
	cardRepo  repository.CardRepository
	dbType    string // sqlite, postgres, mysql, mongodb or memory
	cacheType string // memory or redis
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(cardRepo repository.CardRepository, dbType, cacheType string) *AdminHandler {
	return &AdminHandler{
		cardRepo:  cardRepo,
		dbType:    dbType,
		cacheType: cacheType,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType
	stats["cache_type"] = h.cacheType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb": float64(memStats.HeapAlloc) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	// Catalog repository stats
	if h.cardRepo != nil {
		repoStats, err := h.cardRepo.GetStats(ctx)
		if err == nil {
			repoStats["status"] = "connected"
			stats["catalog"] = repoStats
		} else {
			stats["catalog"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["catalog"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// GetHealth handles GET /api/v1/admin/health
func (h *AdminHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

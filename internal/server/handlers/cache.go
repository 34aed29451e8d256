package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core/cache"
	apperrors "github.com/RimvydasPet/tech-doc-assistant/internal/errors"
)

// globalCache is injected from the server package at startup.
var globalCache *cache.Cache

// SetCache injects the layered response cache.
func SetCache(c *cache.Cache) {
	globalCache = c
}

// RegionStats is the per-region slice of the cache stats response.
type RegionStats struct {
	Region  string  `json:"region"`
	Enabled bool    `json:"enabled"`
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// CacheStatsResponse is the body of GET /api/cache/stats.
type CacheStatsResponse struct {
	Regions []RegionStats `json:"regions"`
}

// CacheStatsHandler reports per-region cache statistics.
func CacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	if globalCache == nil {
		respondWithError(w, r, apperrors.NewInternalError("cache not initialized"))
		return
	}

	all := globalCache.AllStats()

	regions := make([]RegionStats, 0, len(all))
	for region, stats := range all {
		entry := RegionStats{
			Region:  string(region),
			Enabled: stats.Enabled,
			Entries: stats.Entries,
			Hits:    stats.Hits,
			Misses:  stats.Misses,
		}
		if total := stats.Hits + stats.Misses; total > 0 {
			entry.HitRate = float64(stats.Hits) / float64(total)
		}
		regions = append(regions, entry)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Region < regions[j].Region })

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(CacheStatsResponse{Regions: regions})
}

// CacheClearResponse is the body of POST /api/cache/clear.
type CacheClearResponse struct {
	Cleared []string `json:"cleared"`
}

// CacheClearHandler clears one region (?region=) or every region.
func CacheClearHandler(w http.ResponseWriter, r *http.Request) {
	if globalCache == nil {
		respondWithError(w, r, apperrors.NewInternalError("cache not initialized"))
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("region"))
	if name == "" {
		globalCache.InvalidateAll()
		cleared := make([]string, 0, len(cache.Regions()))
		for _, region := range cache.Regions() {
			cleared = append(cleared, string(region))
		}
		writeCacheClear(w, cleared)
		return
	}

	region, err := cache.ParseRegion(name)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "unknown cache region"))
		return
	}
	if err := globalCache.Invalidate(region); err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "failed to clear cache region"))
		return
	}

	writeCacheClear(w, []string{string(region)})
}

func writeCacheClear(w http.ResponseWriter, cleared []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(CacheClearResponse{Cleared: cleared})
}

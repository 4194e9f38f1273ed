package workflow

import (
	"fmt"
	"time"

	"bitbucket.org/horecafocus/backoffice_backend/config"
	"bitbucket.org/horecafocus/backoffice_backend/models"
)

// Redis read-through cache for finished rollup documents. Rollups over wide
// ranges are the most expensive computation in this module and dashboards
// request the same range repeatedly. All helpers are no-ops when redis is
// not configured.

func rollupCacheKey(f models.FactFilter) string {
	return fmt.Sprintf("rollup:%d:%d:%d:%s:%s",
		f.LocationID, f.TeamID, f.WorkerID,
		f.From.Format("2006-01-02"), f.To.Format("2006-01-02"))
}

func getCachedRollup(key string) (*models.LaborRollup, bool) {
	var rollup models.LaborRollup
	found, err := config.GetRedisObject(key, &rollup)
	if err != nil || !found {
		return nil, false
	}
	return &rollup, true
}

func setCachedRollup(key string, rollup *models.LaborRollup, ttl time.Duration) {
	// Best effort; a failed cache write never fails the run.
	_ = config.SetRedisObject(key, rollup, ttl)
}

func invalidateRollup(keys ...string) {
	_ = config.DeleteRedisKeys(keys...)
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AggregateCacheEnabled gates the redis read-through cache for rollup documents.
//
// Set via env:
// - ENABLE_AGGREGATE_CACHE=true
func AggregateCacheEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("ENABLE_AGGREGATE_CACHE")))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

// AggregateCacheTTL is how long finished rollup documents stay cached.
//
// Env: AGGREGATE_CACHE_TTL_SECONDS (default 120s)
func AggregateCacheTTL() time.Duration {
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("AGGREGATE_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

// AggregateSlowMs is the threshold above which a run logs a slow warning.
//
// Env: AGGREGATE_SLOW_MS (default 500ms)
func AggregateSlowMs() int64 {
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("AGGREGATE_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

// BalanceTolerancePercent is the error margin below which a period's balance
// check passes. It is deployment configuration, not an engine constant.
//
// Env: BALANCE_TOLERANCE_PERCENT (default 1.0)
func BalanceTolerancePercent() decimal.Decimal {
	if v := strings.TrimSpace(os.Getenv("BALANCE_TOLERANCE_PERCENT")); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.Sign() >= 0 {
			return d
		}
	}
	return decimal.NewFromInt(1)
}

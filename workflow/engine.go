package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"bitbucket.org/horecafocus/backoffice_backend/config"
	"bitbucket.org/horecafocus/backoffice_backend/models"
	"bitbucket.org/horecafocus/backoffice_backend/utils"
)

const aggregateLockTTL = 30 * time.Second

// EngineConfig wires an aggregation engine. Taxonomy, tolerance and the
// persister are injected per instance; there is no process-wide engine.
type EngineConfig struct {
	Taxonomy         models.TaxonomyTable
	TolerancePercent decimal.Decimal
	Store            models.Persister

	// Locker is optional; without it upserts proceed unguarded, which is
	// safe for a single batch process.
	Locker *redislock.Client
	Logger *logrus.Logger

	// Now is the clock for the freshness policy. Defaults to time.Now.
	Now func() time.Time

	CacheEnabled  bool
	CacheTTL      time.Duration
	SlowThreshold time.Duration
}

// Engine runs both aggregation paths over a snapshot of raw facts. All
// computation between fetch and upsert is pure and deterministic; re-running
// a period overwrites its aggregate with the same result.
type Engine struct {
	classifier *Classifier
	dedup      Deduplicator
	allocator  *Allocator
	builder    PnLBuilder
	validator  BalanceValidator
	rollup     *TimeEntityRollup
	freshness  FreshnessPolicy

	store  models.Persister
	locker *redislock.Client
	log    *logrus.Logger

	cacheEnabled  bool
	cacheTTL      time.Duration
	slowThreshold time.Duration
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("engine: persister is required")
	}
	if err := cfg.Taxonomy.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if cfg.TolerancePercent.Sign() < 0 {
		return nil, errors.New("engine: tolerance must not be negative")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 120 * time.Second
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = 500 * time.Millisecond
	}

	return &Engine{
		classifier:    NewClassifier(cfg.Taxonomy),
		allocator:     NewAllocator(cfg.Taxonomy, cfg.Logger),
		validator:     BalanceValidator{TolerancePercent: cfg.TolerancePercent},
		rollup:        NewTimeEntityRollup(cfg.Logger),
		freshness:     FreshnessPolicy{Now: cfg.Now},
		store:         cfg.Store,
		locker:        cfg.Locker,
		log:           cfg.Logger,
		cacheEnabled:  cfg.CacheEnabled,
		cacheTTL:      cfg.CacheTTL,
		slowThreshold: cfg.SlowThreshold,
	}, nil
}

// RunProfitAndLoss computes and persists one P&L aggregate per requested
// period. Periods have no data dependency on each other and are computed
// concurrently; each period performs exactly one fetch and one upsert, so a
// failed batch leaves the already-written periods valid.
func (e *Engine) RunProfitAndLoss(ctx context.Context, locationID int, periods []models.Period) ([]*models.PnLAggregate, error) {
	ctx = utils.SetRunIdInContext(ctx, uuid.NewString())
	ctx = utils.SetLocationIdInContext(ctx, locationID)

	results := make([]*models.PnLAggregate, len(periods))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range periods {
		i, p := i, p
		g.Go(func() error {
			agg, err := e.runPeriod(gctx, locationID, p)
			if err != nil {
				return fmt.Errorf("period %s: %w", p, err)
			}
			results[i] = agg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) runPeriod(ctx context.Context, locationID int, p models.Period) (*models.PnLAggregate, error) {
	started := time.Now()

	entries, err := e.store.GLEntries(ctx, locationID, p)
	if err != nil {
		config.LogError(e.log, "workflow", "runPeriod", "fetch gl entries", p.String(), err)
		return nil, fmt.Errorf("fetch gl entries: %w", err)
	}

	classification := e.classifier.Classify(entries)
	totals := e.dedup.Collapse(classification)
	final, allocated := e.allocator.Allocate(totals)
	agg := e.builder.Build(locationID, p, final)
	if actor, ok := utils.GetActorFromContext(ctx); ok {
		agg.CreatedBy = actor
	}

	actual, found, err := e.store.ReportedResult(ctx, locationID, p)
	if err != nil {
		config.LogError(e.log, "workflow", "runPeriod", "fetch reported result", p.String(), err)
		return nil, fmt.Errorf("fetch reported result: %w", err)
	}
	if found {
		agg.Validation = e.validator.Validate(agg, actual)
		if !agg.Validation.IsValid {
			e.log.WithFields(logrus.Fields{
				"module":       "workflow",
				"location_id":  locationID,
				"period":       p.String(),
				"error_margin": agg.Validation.ErrorMarginPercent.String(),
				"calculated":   agg.Validation.CalculatedResult.String(),
				"actual":       agg.Validation.ActualResult.String(),
			}).Warn("balance check failed; aggregate persisted with failing validation")
		}
	}

	lockKey := fmt.Sprintf("pnl:%d:%d:%d", locationID, p.Year, p.Month)
	if err := e.withKeyLock(ctx, lockKey, func() error {
		return e.store.UpsertPnLAggregate(ctx, agg)
	}); err != nil {
		config.LogError(e.log, "workflow", "runPeriod", "persist aggregate", p.String(), err)
		return nil, fmt.Errorf("persist aggregate: %w", err)
	}

	e.logRun(ctx, "pnl", started, logrus.Fields{
		"period":               p.String(),
		"facts_read":           len(entries),
		"unknown_facts":        len(classification.Unknown),
		"duplicates_collapsed": totals.DuplicatesCollapsed,
		"unknown_allocated":    allocated.String(),
	})
	return agg, nil
}

// RunLaborRollup builds the full aggregate tree for the filtered range,
// persists it, and returns both the tree and its freshness-filtered exposure.
func (e *Engine) RunLaborRollup(ctx context.Context, filter models.FactFilter) (*models.LaborRollup, *models.LaborRollupExposure, error) {
	ctx = utils.SetRunIdInContext(ctx, uuid.NewString())
	ctx = utils.SetLocationIdInContext(ctx, filter.LocationID)
	started := time.Now()

	cacheKey := rollupCacheKey(filter)
	if e.cacheEnabled {
		if utils.SkipCacheFromContext(ctx) {
			invalidateRollup(cacheKey)
		} else if cached, ok := getCachedRollup(cacheKey); ok {
			return cached, e.freshness.Apply(cached), nil
		}
	}

	facts, err := e.store.LaborFacts(ctx, filter)
	if err != nil {
		config.LogError(e.log, "workflow", "RunLaborRollup", "fetch labor facts", filter, err)
		return nil, nil, fmt.Errorf("fetch labor facts: %w", err)
	}

	rollup := e.rollup.Roll(filter, facts)

	generatedBy := "engine"
	if actor, ok := utils.GetActorFromContext(ctx); ok {
		generatedBy = actor
	}
	lockKey := fmt.Sprintf("rollup:%d:%s:%s",
		filter.LocationID, filter.From.Format("2006-01-02"), filter.To.Format("2006-01-02"))
	if err := e.withKeyLock(ctx, lockKey, func() error {
		return e.store.UpsertLaborRollup(ctx, rollup, generatedBy)
	}); err != nil {
		config.LogError(e.log, "workflow", "RunLaborRollup", "persist rollup", lockKey, err)
		return nil, nil, fmt.Errorf("persist rollup: %w", err)
	}

	if e.cacheEnabled {
		setCachedRollup(cacheKey, rollup, e.cacheTTL)
	}

	e.logRun(ctx, "labor_rollup", started, logrus.Fields{
		"from":           filter.From.Format("2006-01-02"),
		"to":             filter.To.Format("2006-01-02"),
		"facts_read":     len(facts),
		"degraded_facts": rollup.DegradedFacts,
	})
	return rollup, e.freshness.Apply(rollup), nil
}

// withKeyLock serializes the upsert per natural key. Concurrent writers to
// different keys never contend. A missing locker or an unreachable redis
// degrades to an unguarded write; a held lock means another run is writing
// this exact key and the caller should retry.
func (e *Engine) withKeyLock(ctx context.Context, key string, fn func() error) error {
	if e.locker == nil {
		return fn()
	}
	lock, err := e.locker.Obtain(ctx, key, aggregateLockTTL, nil)
	if err == redislock.ErrNotObtained {
		return fmt.Errorf("aggregate %s is being written by another run", key)
	}
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"module": "workflow",
			"key":    key,
		}).Warn("error obtaining redis lock; proceeding without lock: " + err.Error())
		return fn()
	}
	defer func() {
		_ = lock.Release(ctx)
	}()
	return fn()
}

func (e *Engine) logRun(ctx context.Context, name string, started time.Time, fields logrus.Fields) {
	elapsed := time.Since(started)
	fields["module"] = "workflow"
	fields["run"] = name
	fields["ms"] = elapsed.Milliseconds()
	if runID, ok := utils.GetRunIdFromContext(ctx); ok {
		fields["run_id"] = runID
	}
	if locationID, ok := utils.GetLocationIdFromContext(ctx); ok {
		fields["location_id"] = locationID
	}
	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		fields["correlation_id"] = cid
	}
	if elapsed > e.slowThreshold {
		e.log.WithFields(fields).Warn("slow aggregation run")
		return
	}
	e.log.WithFields(fields).Info("aggregation run complete")
}

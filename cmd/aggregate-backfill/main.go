package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"bitbucket.org/horecafocus/backoffice_backend/config"
	"bitbucket.org/horecafocus/backoffice_backend/models"
	"bitbucket.org/horecafocus/backoffice_backend/utils"
	"bitbucket.org/horecafocus/backoffice_backend/workflow"
)

func main() {
	locationID := flag.Int("location-id", 0, "Location id to aggregate (required)")
	from := flag.String("from", "", "Start date (YYYY-MM-DD). Defaults to the first day of last month.")
	to := flag.String("to", "", "End date (YYYY-MM-DD). Defaults to today.")
	skipPnL := flag.Bool("skip-pnl", false, "Skip the profit-and-loss path")
	skipRollup := flag.Bool("skip-rollup", false, "Skip the labor rollup path")
	flag.Parse()

	if *locationID <= 0 {
		fmt.Fprintln(os.Stderr, "-location-id is required")
		os.Exit(1)
	}

	ctx := utils.SetActorInContext(context.Background(), "AggregateBackfill")
	ctx = utils.SetCorrelationIdInContext(ctx, uuid.NewString())

	// Explicit DB connect (config does not connect in init()).
	config.ConnectDatabaseWithRetry()
	config.ConnectRedis()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	if config.GetRedisDB() == nil {
		fmt.Println("Redis unavailable; running without aggregate cache and write locks")
	}

	// Ensure schema is up-to-date (creates aggregate tables if missing).
	models.MigrateTable()

	today, err := models.ConvertToDate(time.Now(), "UTC")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve today: %v\n", err)
		os.Exit(1)
	}
	fromDate := models.MonthStart(today.AddDate(0, -1, 0))
	if strings.TrimSpace(*from) != "" {
		d, err := models.ParseDateString(strings.TrimSpace(*from), "UTC")
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -from: %v\n", err)
			os.Exit(1)
		}
		fromDate = d
	}
	toDate := today
	if strings.TrimSpace(*to) != "" {
		d, err := models.ParseDateString(strings.TrimSpace(*to), "UTC")
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -to: %v\n", err)
			os.Exit(1)
		}
		toDate = d
	}

	taxonomy := models.DefaultTaxonomy()
	if path := strings.TrimSpace(os.Getenv("TAXONOMY_FILE")); path != "" {
		var err error
		taxonomy, err = models.LoadTaxonomyFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load taxonomy: %v\n", err)
			os.Exit(1)
		}
	}

	eng, err := workflow.NewEngine(workflow.EngineConfig{
		Taxonomy:         taxonomy,
		TolerancePercent: config.BalanceTolerancePercent(),
		Store:            models.NewGormPersister(db),
		Locker:           config.GetRedisLock(),
		Logger:           config.GetLogger(),
		CacheEnabled:     config.AggregateCacheEnabled(),
		CacheTTL:         config.AggregateCacheTTL(),
		SlowThreshold:    time.Duration(config.AggregateSlowMs()) * time.Millisecond,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build engine: %v\n", err)
		os.Exit(1)
	}

	if !*skipPnL {
		periods := models.PeriodsBetween(
			models.Period{Year: fromDate.Year(), Month: int(fromDate.Month())},
			models.Period{Year: toDate.Year(), Month: int(toDate.Month())},
		)
		fmt.Printf("Aggregating P&L location=%d periods=%d (%s..%s)\n",
			*locationID, len(periods), periods[0], periods[len(periods)-1])

		aggs, err := eng.RunProfitAndLoss(ctx, *locationID, periods)
		if err != nil {
			fmt.Fprintf(os.Stderr, "p&l aggregation failed: %v\n", err)
			os.Exit(1)
		}
		for _, agg := range aggs {
			status := "not checked"
			if agg.Validation.Performed {
				if agg.Validation.IsValid {
					status = "balanced"
				} else {
					status = fmt.Sprintf("OFF BY %s%%", agg.Validation.ErrorMarginPercent)
				}
			}
			fmt.Printf("  %04d-%02d resultaat=%s (%s)\n", agg.Year, agg.Month, agg.Resultaat, status)
		}
	}

	if !*skipRollup {
		fmt.Printf("Rolling up labor facts location=%d from=%s to=%s\n",
			*locationID, fromDate.Format("2006-01-02"), toDate.Format("2006-01-02"))

		rollup, exposure, err := eng.RunLaborRollup(ctx, models.FactFilter{
			LocationID: *locationID,
			From:       fromDate,
			To:         toDate,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "labor rollup failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  years=%d exposed months=%d weeks=%d days=%d degraded=%d\n",
			len(rollup.Years), len(exposure.HoursByMonth), len(exposure.HoursByWeek),
			len(exposure.HoursByDay), rollup.DegradedFacts)
	}

	fmt.Println("Backfill complete")
}

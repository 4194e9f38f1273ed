package main

import (
	"context"
	"encoding/json"
	"errors"
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

// Reads back a persisted labor rollup without recomputing it, for checking
// what a backfill run actually stored.
func main() {
	locationID := flag.Int("location-id", 0, "Location id of the stored rollup (required)")
	from := flag.String("from", "", "Rollup range start (YYYY-MM-DD, required)")
	to := flag.String("to", "", "Rollup range end (YYYY-MM-DD, required)")
	raw := flag.Bool("raw", false, "Print the stored JSON payload instead of a summary")
	flag.Parse()

	if *locationID <= 0 || strings.TrimSpace(*from) == "" || strings.TrimSpace(*to) == "" {
		fmt.Fprintln(os.Stderr, "-location-id, -from and -to are required")
		os.Exit(1)
	}
	fromDate, err := models.ParseDateString(strings.TrimSpace(*from), "UTC")
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -from: %v\n", err)
		os.Exit(1)
	}
	toDate, err := models.ParseDateString(strings.TrimSpace(*to), "UTC")
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -to: %v\n", err)
		os.Exit(1)
	}

	ctx := utils.SetCorrelationIdInContext(context.Background(), uuid.NewString())
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	store := models.NewGormPersister(db)
	doc, err := store.LaborRollupDocumentByKey(ctx, *locationID, fromDate, toDate)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		fmt.Fprintln(os.Stderr, "no stored rollup for that key; run aggregate-backfill first")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read rollup: %v\n", err)
		os.Exit(1)
	}

	if *raw {
		fmt.Println(doc.Payload)
		return
	}

	var rollup models.LaborRollup
	if err := json.Unmarshal([]byte(doc.Payload), &rollup); err != nil {
		fmt.Fprintf(os.Stderr, "stored payload is not a rollup document: %v\n", err)
		os.Exit(1)
	}
	exposure := workflow.FreshnessPolicy{}.Apply(&rollup)

	fmt.Printf("Stored rollup location=%d %s..%s generated_by=%s updated=%s\n",
		doc.LocationID, *from, *to, doc.GeneratedBy, doc.UpdatedAt.Format(time.RFC3339))
	fmt.Printf("  years=%d exposed months=%d weeks=%d days=%d degraded=%d\n",
		len(rollup.Years), len(exposure.HoursByMonth), len(exposure.HoursByWeek),
		len(exposure.HoursByDay), rollup.DegradedFacts)
}

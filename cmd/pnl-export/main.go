package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"bitbucket.org/horecafocus/backoffice_backend/config"
	"bitbucket.org/horecafocus/backoffice_backend/models"
	"bitbucket.org/horecafocus/backoffice_backend/models/reports"
	"bitbucket.org/horecafocus/backoffice_backend/utils"
)

func main() {
	locationID := flag.Int("location-id", 0, "Location id to export (required)")
	fromPeriod := flag.String("from", "", "First period (YYYY-MM, required)")
	toPeriod := flag.String("to", "", "Last period (YYYY-MM, required)")
	out := flag.String("out", "", "Output .xlsx path. Empty generates a name in the working directory.")
	upload := flag.Bool("upload", false, "Also upload the workbook to the report bucket (GCS_BUCKET)")
	flag.Parse()

	if *locationID <= 0 || *fromPeriod == "" || *toPeriod == "" {
		fmt.Fprintln(os.Stderr, "-location-id, -from and -to are required")
		os.Exit(1)
	}
	from, err := parsePeriod(*fromPeriod)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -from: %v\n", err)
		os.Exit(1)
	}
	to, err := parsePeriod(*toPeriod)
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
	aggs, err := store.PnLAggregatesBetween(ctx, *locationID, from, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read aggregates: %v\n", err)
		os.Exit(1)
	}
	if len(aggs) == 0 {
		fmt.Fprintln(os.Stderr, "no aggregates found for that range; run aggregate-backfill first")
		os.Exit(1)
	}

	path := strings.TrimSpace(*out)
	if path == "" {
		path = fmt.Sprintf("pnl_%d_%s_%s_%s.xlsx", *locationID, from, to, utils.GenerateUniqueFilename())
	}
	if err := reports.WritePnLWorkbook(path, aggs); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write workbook: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d periods)\n", path, len(aggs))

	if *upload {
		objectName := fmt.Sprintf("pnl-exports/%d/%s_%s.xlsx", *locationID, from, to)
		if err := reports.UploadPnLWorkbook(ctx, objectName, aggs); err != nil {
			fmt.Fprintf(os.Stderr, "upload failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Uploaded %s\n", objectName)
	}
}

func parsePeriod(s string) (models.Period, error) {
	var p models.Period
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d-%d", &p.Year, &p.Month); err != nil {
		return p, err
	}
	if p.Month < 1 || p.Month > 12 {
		return p, fmt.Errorf("month out of range: %d", p.Month)
	}
	return p, nil
}

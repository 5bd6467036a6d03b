// diff-backfill resolves every unresolved checklist entry (diff_status NULL or
// pending) against the previous day's outputs, then exits. Useful after bulk
// imports or when the in-server calculator was disabled for a while.
//
// Safe to run alongside a live server: row updates are guarded so a row is
// resolved exactly once.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/diff-backfill
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"bitbucket.org/mmdatafocus/checklist_backend/workflow"
)

func main() {
	pageSize := flag.Int("page-size", 0, "Optional: rows per batch (default DIFF_CALC_PAGE_SIZE or 500)")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	// Ensure schema is up-to-date (creates checklist_entries if missing).
	models.MigrateTable()

	logger := config.GetLogger()
	calculator := workflow.NewDiffCalculator(db, logger)
	if *pageSize > 0 {
		calculator.PageSize = *pageSize
	}

	total := 0
	for {
		resolved, err := calculator.ResolveOnce(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "backfill failed after %d rows: %v\n", total, err)
			os.Exit(1)
		}
		total += resolved
		if resolved == 0 {
			break
		}
		fmt.Printf("resolved %d rows so far\n", total)
	}

	fmt.Printf("Backfill complete (%d rows resolved)\n", total)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anmolkh/internradar/internal/broadcast"
	"github.com/anmolkh/internradar/internal/classify"
	"github.com/anmolkh/internradar/internal/ingest"
	"github.com/anmolkh/internradar/internal/model"
	"github.com/anmolkh/internradar/internal/store"
)

var dryRun bool

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run one ingestion cycle for every source and exit",
	Long:  "Poll each configured source once, print the cycle reports, then exit.\nWith --dry-run nothing is persisted and every in-scope posting counts as new.",
	RunE:  runPoll,
}

func init() {
	pollCmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not persist; print what would be admitted")
	rootCmd.AddCommand(pollCmd)
}

func runPoll(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	var jobStore model.JobStore
	if dryRun {
		logger.Info("dry-run mode enabled, nothing will be persisted")
		jobStore = store.NewNopStore()
	} else {
		sqlStore, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer sqlStore.Close()
		jobStore = sqlStore
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	filter := classify.NewInternshipFilter(cfg.ExcludeKeywords)
	hub := broadcast.NewHub(logger)

	plans, err := buildPlans(cfg, filter, httpClient, logger)
	if err != nil {
		return err
	}

	coordinator := ingest.NewCoordinator(filter, jobStore, hub, cfg.MaxFetches, cfg.BroadcastUpdates, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, plan := range plans {
		report := coordinator.RunCycle(ctx, plan.Source, plan.Connector, plan.Orgs)
		line := fmt.Sprintf("%-16s new=%d updated=%d rejected=%d", report.Source, report.New, report.Updated, report.Rejected)
		if len(report.FailedOrgs) > 0 {
			line += fmt.Sprintf(" failed_orgs=%s", strings.Join(report.FailedOrgs, ","))
		}
		if report.Err != nil {
			line += fmt.Sprintf(" error=%v", report.Err)
		}
		fmt.Fprintln(os.Stdout, line)
	}

	return nil
}

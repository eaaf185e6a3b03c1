package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anmolkh/internradar/internal/broadcast"
	"github.com/anmolkh/internradar/internal/classify"
	"github.com/anmolkh/internradar/internal/ingest"
	"github.com/anmolkh/internradar/internal/notifier"
	"github.com/anmolkh/internradar/internal/scheduler"
	"github.com/anmolkh/internradar/internal/server"
	"github.com/anmolkh/internradar/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ingestion daemon",
	Long:  "Start the per-source polling timelines and the serving surface; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"sources", len(cfg.Sources),
		"db_path", cfg.DBPath,
		"broadcast_updates", cfg.BroadcastUpdates,
		"max_concurrent_fetches", cfg.MaxFetches,
	)

	jobStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer jobStore.Close()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	filter := classify.NewInternshipFilter(cfg.ExcludeKeywords)
	hub := broadcast.NewHub(logger)

	plans, err := buildPlans(cfg, filter, httpClient, logger)
	if err != nil {
		logger.Error("failed to build source plans", "error", err)
		os.Exit(1)
	}
	if len(plans) == 0 {
		logger.Error("no sources to poll")
		os.Exit(1)
	}

	coordinator := ingest.NewCoordinator(filter, jobStore, hub, cfg.MaxFetches, cfg.BroadcastUpdates, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The notifier is just another subscriber on the hub.
	var n notifier.Notifier
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		n = notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		n = notifier.NewLogNotifier(logger)
	}
	go notifier.Run(ctx, hub, n, logger)

	if cfg.Server.Enabled {
		srv := server.New(cfg.Server.Addr, jobStore, hub, pollAllFunc(coordinator, plans), logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	sched := scheduler.NewScheduler(plans, coordinator, cfg.Jitter, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}

// pollAllFunc runs one immediate cycle for every source sequentially and
// reports the newly admitted count. Backs the POST /poll trigger.
func pollAllFunc(coordinator *ingest.Coordinator, plans []scheduler.Plan) server.PollFunc {
	return func(ctx context.Context) int {
		total := 0
		for _, plan := range plans {
			report := coordinator.RunCycle(ctx, plan.Source, plan.Connector, plan.Orgs)
			total += report.New
		}
		return total
	}
}

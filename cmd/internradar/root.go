package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/anmolkh/internradar/internal/classify"
	"github.com/anmolkh/internradar/internal/config"
	"github.com/anmolkh/internradar/internal/connector"
	"github.com/anmolkh/internradar/internal/ratelimit"
	"github.com/anmolkh/internradar/internal/retry"
	"github.com/anmolkh/internradar/internal/scheduler"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "internradar",
	Short: "U.S. internship radar across ATS job boards",
	Long:  "internradar polls Greenhouse, Lever, Ashby, SmartRecruiters and Recruitee boards,\nkeeps the U.S. internship postings, and pushes new ones to live subscribers.",
	// Default to `start` so the bare binary runs the daemon; keeps systemd
	// units that invoke it directly working.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: INTERNRADAR_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > INTERNRADAR_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("INTERNRADAR_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// buildPlans turns the enabled source configs into scheduler plans, wrapping
// each connector with provider rate limiting and transient-failure retries.
func buildPlans(cfg *config.Config, filter *classify.InternshipFilter, httpClient *http.Client, logger *slog.Logger) ([]scheduler.Plan, error) {
	limiter := ratelimit.NewProviderLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	var plans []scheduler.Plan
	for _, sc := range cfg.Sources {
		if !sc.Enabled {
			continue
		}

		conn, err := connector.ForSource(sc.Source, httpClient, filter)
		if err != nil {
			return nil, err
		}

		wrapped := retry.NewRetryConnector(
			ratelimit.NewLimitedConnector(conn, limiter, sc.Source),
			cfg.Retry.MaxRetries,
			cfg.Retry.BaseDelay,
			logger,
		)

		plans = append(plans, scheduler.Plan{
			Source:    sc.Source,
			Connector: wrapped,
			Orgs:      sc.Orgs,
			Interval:  sc.Interval,
		})
		logger.Info("registered source", "source", sc.Source, "orgs", len(sc.Orgs), "interval", sc.Interval.String())
	}
	return plans, nil
}

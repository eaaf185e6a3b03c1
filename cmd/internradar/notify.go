package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/anmolkh/internradar/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a test message to the configured Slack webhook",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger(debug)

		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return err
		}
		if cfg.Notification.Type != "slack" {
			return fmt.Errorf("notify requires notification.type to be \"slack\" in config")
		}

		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		s := notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
		if err := s.SendTestMessage(); err != nil {
			return fmt.Errorf("test slack message failed: %w", err)
		}
		logger.Info("test slack message sent successfully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}

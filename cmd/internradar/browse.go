package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anmolkh/internradar/internal/browse"
	"github.com/anmolkh/internradar/internal/store"
)

var browseLimit int

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored postings in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return err
		}

		jobStore, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return err
		}
		defer jobStore.Close()

		return browse.Run(context.Background(), jobStore, browseLimit)
	},
}

func init() {
	browseCmd.Flags().IntVar(&browseLimit, "limit", 200, "maximum postings to load")
	rootCmd.AddCommand(browseCmd)
}

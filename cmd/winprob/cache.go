package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/ipl-winprob/internal/logger"
	"github.com/yourusername/ipl-winprob/internal/ml"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the prediction cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached prediction",
	Long:  `Clears the configured cache. Only a shared redis cache outlives the process, so this is mostly useful for the redis backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, closeCache := ml.NewCache(cfg.Cache, appLog)
		if closeCache != nil {
			defer closeCache()
		}

		n, err := c.Clear(cmd.Context())
		if err != nil {
			return err
		}
		logger.NewAuditLogger(appLog).LogCacheCleared(c.Backend(), n, "cli")

		if jsonOutput {
			return printJSON(map[string]interface{}{"backend": c.Backend(), "cleared": n})
		}
		fmt.Printf("Cleared %d entries from the %s cache\n", n, c.Backend())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheBackendFlag string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the analysis result cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached analysis result",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		backend := c.CacheBackend
		if cmd.Flags().Changed("backend") {
			backend = cacheBackendFlag
		}
		ctx := cmd.Context()
		store, err := openCache(ctx, c, backend, newLogger(c))
		if err != nil {
			return err
		}
		if store == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No cache backend configured")
			return nil
		}
		defer store.Close()
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %s cache\n", backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheClearCmd.Flags().StringVar(&cacheBackendFlag, "backend", "", "cache backend to clear: memory|badger|redis (overrides config)")
}

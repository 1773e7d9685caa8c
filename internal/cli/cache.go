package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the palette cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the cached palette entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := a.openCache()
			if err != nil {
				return err
			}
			defer cache.Store.Close()

			raw, ok, err := cache.Raw(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				a.logger.Info("no cached palette", "key", cache.Key)
				return nil
			}
			if _, _, err := cache.Load(cmd.Context()); err != nil {
				a.logger.Warn("cached palette is malformed", "error", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the cached palette",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := a.openCache()
			if err != nil {
				return err
			}
			defer cache.Store.Close()

			if err := cache.Clear(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("cleared palette cache", "key", cache.Key)
			return nil
		},
	})

	return cacheCmd
}

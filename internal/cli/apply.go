package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/accent/internal/style"
)

func newApplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Write the cached palette to the stylesheet",
		Long: `Write the cached palette to the configured stylesheet without reading any
image. Use this to restore the last known colours immediately at startup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := a.openCache()
			if err != nil {
				return err
			}
			defer cache.Store.Close()

			palette, ok, err := cache.Load(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no cached palette (run: accent extract --save <image>)")
			}

			sheet := style.NewStylesheet(a.cfg.Stylesheet.Path, a.cfg.Stylesheet.Selector)
			if err := style.Apply(sheet, a.cfg.Variables, palette); err != nil {
				return err
			}
			a.logger.Info("applied cached palette", "path", sheet.Path(),
				"primary", palette.Primary, "secondary", palette.Secondary)
			return nil
		},
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/accent/internal/bootstrap"
	"github.com/jmylchreest/accent/internal/colour"
	"github.com/jmylchreest/accent/internal/image"
	"github.com/jmylchreest/accent/internal/style"
)

func newRunCmd(a *app) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run [image]",
		Short: "Apply the cached palette, then refresh it from the image",
		Long: `Apply the cached palette to the stylesheet straight away, then extract a
fresh palette from the image in two delayed passes and cache it.

If the image does not exist yet, accent waits for it to be written and
extracts once it appears, up to --timeout. Extraction failures are logged
and leave the previous colours in place.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imagePath := a.cfg.Image
			if len(args) == 1 {
				imagePath = args[0]
			}
			return runBootstrap(cmd, a, imagePath, timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for the image")
	return cmd
}

func runBootstrap(cmd *cobra.Command, a *app, imagePath string, timeout time.Duration) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg := a.cfg
	extractor, err := colour.NewExtractor(cfg.Extractor)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	cache, err := a.openCache()
	if err != nil {
		return err
	}
	defer cache.Store.Close()

	loader := image.NewSmartLoader(image.SmartLoaderOptions{
		AllowInsecure: cfg.AllowInsecure,
		CacheRemote:   cfg.CacheRemote,
	})

	b, err := bootstrap.New(bootstrap.Config{
		Source:         image.NewFileSource(imagePath, loader, a.logger.Named("source")),
		Extractor:      extractor,
		Style:          style.NewStylesheet(cfg.Stylesheet.Path, cfg.Stylesheet.Selector),
		Variables:      cfg.Variables,
		Cache:          cache,
		Logger:         a.logger.Named("bootstrap"),
		StructureDelay: cfg.Bootstrap.StructureDelay,
		ResourcesDelay: cfg.Bootstrap.ResourcesDelay,
	})
	if err != nil {
		return err
	}

	// There is no document lifecycle here. Structure is ready at once and
	// resources follow one structure delay later, so the passes run in
	// document order.
	b.Run(ctx, bootstrap.Sequential(cfg.Bootstrap.StructureDelay))

	if err := b.Wait(ctx); err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			a.logger.Warn("gave up waiting for image", "path", imagePath, "timeout", timeout)
		case errors.Is(err, context.Canceled):
			a.logger.Info("interrupted")
		default:
			return err
		}
	}

	palette, ok := b.Palette()
	if !ok {
		a.logger.Warn("no palette applied", "path", imagePath)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), palette.Primary)
	fmt.Fprintln(cmd.OutOrStdout(), palette.Secondary)
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/accent/internal/colour"
	"github.com/jmylchreest/accent/internal/image"
	"github.com/jmylchreest/accent/internal/style"
)

type extractOptions struct {
	format     string
	output     string
	candidates bool
	preview    bool
	apply      bool
	save       bool
}

func newExtractCmd(a *app) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract the accent palette from an image",
		Long: `Extract a primary and secondary accent colour from an image.

Pixels that are transparent, near-black, near-white or greyish are ignored.
The remaining colours are grouped into buckets and ranked by how often they
occur weighted by their saturation. The primary is the first vibrant,
mid-lightness bucket; the secondary is a darker, distinct companion.

Supported image formats: JPEG, PNG, GIF, WebP, AVIF. HTTPS URLs are accepted.

Examples:
  # Print the palette
  accent extract profile.jpg

  # Show the ranked candidate buckets with swatches
  accent extract --candidates --preview profile.jpg

  # Emit CSS custom properties
  accent extract --format css profile.jpg

  # Write the stylesheet and update the cache
  accent extract --apply --save profile.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, a, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format (text, json, yaml, css)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.candidates, "candidates", false, "include the ranked candidate buckets")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "show colour swatches in terminal")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "write the palette to the configured stylesheet")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the palette in the palette cache")

	return cmd
}

func runExtract(cmd *cobra.Command, a *app, opts *extractOptions, imagePath string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := a.cfg
	logger := a.logger.Named("extract")

	if err := image.ValidateImagePath(imagePath, cfg.AllowInsecure); err != nil {
		return fmt.Errorf("invalid image path: %w", err)
	}

	extractor, err := colour.NewExtractor(cfg.Extractor)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	logger.Debug("loading image", "path", imagePath)
	loader := image.NewSmartLoader(image.SmartLoaderOptions{
		AllowInsecure: cfg.AllowInsecure,
		CacheRemote:   cfg.CacheRemote,
	})
	img, err := loader.Load(ctx, imagePath)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	bounds := img.Bounds()
	logger.Debug("image loaded", "width", bounds.Dx(), "height", bounds.Dy())

	res, err := extractor.ExtractImageWithDetails(img)
	if err != nil {
		return fmt.Errorf("failed to extract palette: %w", err)
	}
	logger.Debug("extracted palette",
		"primary", res.Palette.Primary,
		"secondary", res.Palette.Secondary,
		"kept", res.Kept,
		"pixels", res.Pixels,
		"candidates", len(res.Candidates))

	preview := opts.preview && opts.output == "" && colour.SupportsANSIColours(os.Stdout)
	output, err := formatResult(res, formatOptions{
		Format:     opts.format,
		Candidates: opts.candidates,
		Preview:    preview,
		Variables:  cfg.Variables,
		Selector:   cfg.Stylesheet.Selector,
	})
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if opts.apply {
		sheet := style.NewStylesheet(cfg.Stylesheet.Path, cfg.Stylesheet.Selector)
		if err := style.Apply(sheet, cfg.Variables, res.Palette); err != nil {
			return err
		}
		logger.Info("wrote stylesheet", "path", sheet.Path())
	}

	if opts.save {
		cache, err := a.openCache()
		if err != nil {
			return err
		}
		defer cache.Store.Close()
		if err := cache.Save(ctx, res.Palette); err != nil {
			return fmt.Errorf("failed to save palette: %w", err)
		}
		logger.Info("saved palette", "key", cache.Key)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(output), 0o644); err != nil { // #nosec G306 - Palette output is not sensitive
			return fmt.Errorf("failed to write output file: %w", err)
		}
		logger.Debug("wrote output", "path", opts.output)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

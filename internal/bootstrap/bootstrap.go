// Package bootstrap applies a cached accent palette immediately and then
// refreshes it from the profile image once the page signals readiness.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/accent/internal/colour"
	"github.com/jmylchreest/accent/internal/image"
	"github.com/jmylchreest/accent/internal/store"
	"github.com/jmylchreest/accent/internal/style"
)

// ErrNotLoaded is returned by Refresh when the image is not available yet.
var ErrNotLoaded = errors.New("image not loaded")

// Signals are the two readiness events that schedule extraction passes.
// A nil channel is never awaited.
type Signals struct {
	StructureReady <-chan struct{}
	ResourcesReady <-chan struct{}
}

// Closed returns Signals whose events have both already happened.
func Closed() Signals {
	ch := make(chan struct{})
	close(ch)
	return Signals{StructureReady: ch, ResourcesReady: ch}
}

// Sequential returns Signals for a document that is already parsed: the
// structure signal has fired and the resources signal fires after gap.
// Passing the structure delay as gap keeps the resources pass behind the
// structure pass.
func Sequential(gap time.Duration) Signals {
	structure := make(chan struct{})
	close(structure)
	resources := make(chan struct{})
	time.AfterFunc(gap, func() { close(resources) })
	return Signals{StructureReady: structure, ResourcesReady: resources}
}

// Config wires a Bootstrap to its collaborators.
type Config struct {
	Source    image.Source
	Extractor *colour.Extractor
	Style     style.Context
	Variables style.Variables

	// Cache may be nil, in which case nothing is read or persisted.
	Cache *store.PaletteCache

	Logger hclog.Logger

	StructureDelay time.Duration
	ResourcesDelay time.Duration
}

// Bootstrap runs extraction passes against a source and applies the
// results. Passes never overlap.
type Bootstrap struct {
	source    image.Source
	extractor *colour.Extractor
	style     style.Context
	vars      style.Variables
	cache     *store.PaletteCache
	logger    hclog.Logger

	structureDelay time.Duration
	resourcesDelay time.Duration

	mu      sync.Mutex
	current colour.Palette
	passes  int

	wg sync.WaitGroup
}

// New creates a Bootstrap.
func New(cfg Config) (*Bootstrap, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("bootstrap requires an image source")
	}
	if cfg.Style == nil {
		return nil, fmt.Errorf("bootstrap requires a style context")
	}
	if cfg.Extractor == nil {
		ext, err := colour.NewExtractor(colour.DefaultConfig())
		if err != nil {
			return nil, err
		}
		cfg.Extractor = ext
	}
	if cfg.Variables.Primary == "" {
		cfg.Variables = style.DefaultVariables()
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	return &Bootstrap{
		source:         cfg.Source,
		extractor:      cfg.Extractor,
		style:          cfg.Style,
		vars:           cfg.Variables,
		cache:          cfg.Cache,
		logger:         cfg.Logger,
		structureDelay: cfg.StructureDelay,
		resourcesDelay: cfg.ResourcesDelay,
	}, nil
}

// Run applies the cached palette, if any, before returning, and schedules
// one extraction pass per readiness signal. Cancelling ctx drops passes that
// have not started.
func (b *Bootstrap) Run(ctx context.Context, signals Signals) {
	b.applyCached(ctx)

	b.schedule(ctx, "structure", signals.StructureReady, b.structureDelay)
	b.schedule(ctx, "resources", signals.ResourcesReady, b.resourcesDelay)
}

// Wait blocks until every scheduled pass, including deferred re-runs, has
// finished or ctx is done.
func (b *Bootstrap) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Palette returns the palette most recently applied.
func (b *Bootstrap) Palette() (colour.Palette, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, !b.current.IsZero()
}

// Passes returns the number of extraction passes that applied a palette.
func (b *Bootstrap) Passes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.passes
}

// Refresh runs one extraction pass and reports its outcome. It returns
// ErrNotLoaded without subscribing when the image is not available.
func (b *Bootstrap) Refresh(ctx context.Context) (colour.Palette, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.source.Loaded() {
		return colour.Palette{}, ErrNotLoaded
	}
	return b.extractLocked(ctx)
}

func (b *Bootstrap) applyCached(ctx context.Context) {
	if b.cache == nil {
		return
	}

	palette, ok, err := b.cache.Load(ctx)
	if err != nil {
		b.logger.Warn("ignoring cached palette", "error", err)
		return
	}
	if !ok {
		b.logger.Debug("no cached palette")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := style.Apply(b.style, b.vars, palette); err != nil {
		b.logger.Warn("failed to apply cached palette", "error", err)
		return
	}
	b.current = palette
	b.logger.Debug("applied cached palette", "primary", palette.Primary, "secondary", palette.Secondary)
}

func (b *Bootstrap) schedule(ctx context.Context, name string, signal <-chan struct{}, delay time.Duration) {
	if signal == nil {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		select {
		case <-ctx.Done():
			return
		case <-signal:
		}

		b.logger.Trace("readiness signal", "signal", name, "delay", delay)
		b.wg.Add(1)
		time.AfterFunc(delay, func() {
			defer b.wg.Done()
			b.pass(ctx, name, true)
		})
	}()
}

// pass runs one extraction. When the image is not loaded and allowDefer is
// set, it subscribes to the load event and re-runs once when it fires.
func (b *Bootstrap) pass(ctx context.Context, name string, allowDefer bool) {
	if ctx.Err() != nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.source.Loaded() {
		if !allowDefer {
			b.logger.Debug("image still not loaded", "pass", name)
			return
		}
		b.deferLocked(ctx, name)
		return
	}

	palette, err := b.extractLocked(ctx)
	if err != nil {
		b.logger.Warn("extraction pass failed", "pass", name, "error", err)
		return
	}
	b.logger.Info("applied palette", "pass", name, "primary", palette.Primary, "secondary", palette.Secondary)
}

func (b *Bootstrap) deferLocked(ctx context.Context, name string) {
	loaded := make(chan struct{}, 1)
	err := b.source.OnLoad(ctx, func() {
		select {
		case loaded <- struct{}{}:
		default:
		}
	})
	if err != nil {
		b.logger.Warn("cannot wait for image", "pass", name, "error", err)
		return
	}

	// The image may have finished loading between the check in pass and
	// the subscription, in which case no load event will follow.
	if b.source.Loaded() {
		select {
		case loaded <- struct{}{}:
		default:
		}
	}

	b.logger.Debug("image not loaded, deferring pass", "pass", name)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		select {
		case <-ctx.Done():
		case <-loaded:
			b.pass(ctx, name+"-deferred", false)
		}
	}()
}

func (b *Bootstrap) extractLocked(ctx context.Context) (colour.Palette, error) {
	img, err := b.source.Image(ctx)
	if err != nil {
		return colour.Palette{}, fmt.Errorf("failed to load image: %w", err)
	}

	palette, err := b.extractor.ExtractImage(img)
	if err != nil {
		return colour.Palette{}, fmt.Errorf("failed to extract palette: %w", err)
	}

	if err := style.Apply(b.style, b.vars, palette); err != nil {
		return colour.Palette{}, err
	}
	b.current = palette
	b.passes++

	if b.cache != nil {
		if err := b.cache.Save(ctx, palette); err != nil {
			b.logger.Warn("failed to cache palette", "error", err)
		}
	}
	return palette, nil
}

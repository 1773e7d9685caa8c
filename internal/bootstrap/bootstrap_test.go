package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/accent/internal/colour"
	imagesrc "github.com/jmylchreest/accent/internal/image"
	"github.com/jmylchreest/accent/internal/store"
	"github.com/jmylchreest/accent/internal/style"
)

var (
	cachedPalette    = colour.Palette{Primary: "rgb(1, 2, 3)", Secondary: "rgb(4, 5, 6)"}
	extractedPalette = colour.Palette{Primary: "rgb(255, 18, 18)", Secondary: "rgb(117, 27, 27)"}
)

type fakeSource struct {
	mu       sync.Mutex
	loaded   bool
	err      error
	reads    int
	onLoad   []func()
	onLoadFn func() error
}

func (s *fakeSource) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *fakeSource) Image(context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}
	return img, nil
}

func (s *fakeSource) OnLoad(_ context.Context, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onLoadFn != nil {
		if err := s.onLoadFn(); err != nil {
			return err
		}
	}
	s.onLoad = append(s.onLoad, fn)
	return nil
}

func (s *fakeSource) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.onLoad)
}

// load marks the image as loaded and fires every subscriber twice.
func (s *fakeSource) load() {
	s.mu.Lock()
	s.loaded = true
	callbacks := s.onLoad
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn()
		fn()
	}
}

func (s *fakeSource) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func newTestBootstrap(t *testing.T, src *fakeSource, cache *store.PaletteCache) (*Bootstrap, *style.Memory) {
	t.Helper()
	mem := style.NewMemory()
	b, err := New(Config{
		Source:         src,
		Style:          mem,
		Cache:          cache,
		StructureDelay: time.Millisecond,
		ResourcesDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b, mem
}

func newCache(t *testing.T, p colour.Palette) *store.PaletteCache {
	t.Helper()
	cache := store.NewPaletteCache(store.NewFileStore(filepath.Join(t.TempDir(), "store.json")))
	if !p.IsZero() {
		if err := cache.Save(context.Background(), p); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	return cache
}

func waitFor(t *testing.T, b *Bootstrap) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func primary(mem *style.Memory) string {
	v, _ := mem.Get("--primary-color")
	return v
}

func TestRunAppliesCachedPaletteFirst(t *testing.T) {
	src := &fakeSource{loaded: true}
	b, mem := newTestBootstrap(t, src, newCache(t, cachedPalette))

	structure := make(chan struct{})
	b.Run(context.Background(), Signals{StructureReady: structure})

	if got := primary(mem); got != cachedPalette.Primary {
		t.Fatalf("primary after Run() = %q, want cached %q", got, cachedPalette.Primary)
	}
	if src.readCount() != 0 {
		t.Error("image read before any readiness signal")
	}

	close(structure)
	waitFor(t, b)

	if got := primary(mem); got != extractedPalette.Primary {
		t.Errorf("primary after pass = %q, want %q", got, extractedPalette.Primary)
	}
}

func TestRunTwoPasses(t *testing.T) {
	src := &fakeSource{loaded: true}
	cache := newCache(t, colour.Palette{})
	b, mem := newTestBootstrap(t, src, cache)

	b.Run(context.Background(), Closed())
	waitFor(t, b)

	if b.Passes() != 2 {
		t.Errorf("Passes() = %d, want 2", b.Passes())
	}
	for name, want := range map[string]string{
		"--primary-color":   extractedPalette.Primary,
		"--secondary-color": extractedPalette.Secondary,
		"--accent-neon":     extractedPalette.Primary,
		"--accent-green":    extractedPalette.Primary,
	} {
		if got, _ := mem.Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}

	got, ok, err := cache.Load(context.Background())
	if err != nil || !ok || got != extractedPalette {
		t.Errorf("cached palette = %+v, %v, %v; want %+v", got, ok, err, extractedPalette)
	}
	if p, ok := b.Palette(); !ok || p != extractedPalette {
		t.Errorf("Palette() = %+v, %v", p, ok)
	}
}

func TestDeferredPassRunsOnceOnLoad(t *testing.T) {
	src := &fakeSource{}
	b, mem := newTestBootstrap(t, src, nil)

	structure := make(chan struct{})
	close(structure)
	b.Run(context.Background(), Signals{StructureReady: structure})

	deadline := time.Now().Add(5 * time.Second)
	for src.subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("pass did not subscribe to the load event")
		}
		time.Sleep(time.Millisecond)
	}
	if src.readCount() != 0 {
		t.Fatal("image read while not loaded")
	}

	src.load()
	waitFor(t, b)

	if src.readCount() != 1 {
		t.Errorf("image read %d times, want 1", src.readCount())
	}
	if got := primary(mem); got != extractedPalette.Primary {
		t.Errorf("primary = %q, want %q", got, extractedPalette.Primary)
	}
	if src.subscribers() != 1 {
		t.Errorf("subscribed %d times, want 1", src.subscribers())
	}
}

func TestDeferredPassWhenLoadRacesSubscribe(t *testing.T) {
	src := &fakeSource{}
	// The image finishes loading while the pass subscribes, so the load
	// event is never delivered.
	src.onLoadFn = func() error {
		src.loaded = true
		return nil
	}
	b, mem := newTestBootstrap(t, src, nil)

	structure := make(chan struct{})
	close(structure)
	b.Run(context.Background(), Signals{StructureReady: structure})
	waitFor(t, b)

	if src.readCount() != 1 {
		t.Errorf("image read %d times, want 1", src.readCount())
	}
	if got := primary(mem); got != extractedPalette.Primary {
		t.Errorf("primary = %q, want %q", got, extractedPalette.Primary)
	}
}

func TestRunWaitsForCompleteImageFile(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	data := buf.Bytes()

	path := filepath.Join(t.TempDir(), "profile.png")
	src := imagesrc.NewFileSource(path, imagesrc.NewFileLoader(), nil)
	mem := style.NewMemory()
	b, err := New(Config{
		Source:         src,
		Style:          mem,
		StructureDelay: time.Millisecond,
		ResourcesDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Run(ctx, Closed())

	if err := os.WriteFile(path, data[:len(data)/2], 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	if got := primary(mem); got != "" {
		t.Fatalf("primary = %q applied from a half-written file", got)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	waitFor(t, b)

	if got := primary(mem); got != extractedPalette.Primary {
		t.Errorf("primary = %q, want %q", got, extractedPalette.Primary)
	}
	if b.Passes() < 1 {
		t.Errorf("Passes() = %d, want at least 1", b.Passes())
	}
}

func TestSequentialOrdersPasses(t *testing.T) {
	var logs bytes.Buffer
	src := &fakeSource{loaded: true}
	b, err := New(Config{
		Source:         src,
		Style:          style.NewMemory(),
		Logger:         hclog.New(&hclog.LoggerOptions{Output: &logs, Level: hclog.Info}),
		StructureDelay: 30 * time.Millisecond,
		ResourcesDelay: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	b.Run(context.Background(), Sequential(30*time.Millisecond))
	waitFor(t, b)

	out := logs.String()
	structure := strings.Index(out, "pass=structure")
	resources := strings.Index(out, "pass=resources")
	if structure < 0 || resources < 0 {
		t.Fatalf("missing pass logs:\n%s", out)
	}
	if resources < structure {
		t.Errorf("resources pass ran before the structure pass:\n%s", out)
	}
}

func TestSequentialSignals(t *testing.T) {
	signals := Sequential(time.Hour)

	select {
	case <-signals.StructureReady:
	default:
		t.Error("structure signal not ready")
	}
	select {
	case <-signals.ResourcesReady:
		t.Error("resources signal ready before the gap elapsed")
	default:
	}

	signals = Sequential(0)
	select {
	case <-signals.ResourcesReady:
	case <-time.After(5 * time.Second):
		t.Error("resources signal never became ready")
	}
}

func TestFailedPassLeavesColoursUntouched(t *testing.T) {
	src := &fakeSource{loaded: true, err: errors.New("tainted")}
	cache := newCache(t, cachedPalette)
	b, mem := newTestBootstrap(t, src, cache)

	b.Run(context.Background(), Closed())
	waitFor(t, b)

	if src.readCount() != 2 {
		t.Errorf("image read %d times, want 2", src.readCount())
	}
	if got := primary(mem); got != cachedPalette.Primary {
		t.Errorf("primary = %q, want cached %q", got, cachedPalette.Primary)
	}
	got, _, _ := cache.Load(context.Background())
	if got != cachedPalette {
		t.Errorf("cache overwritten with %+v", got)
	}
	if b.Passes() != 0 {
		t.Errorf("Passes() = %d, want 0", b.Passes())
	}
}

func TestSubscribeFailureIsSwallowed(t *testing.T) {
	src := &fakeSource{onLoadFn: func() error { return errors.New("no events") }}
	b, mem := newTestBootstrap(t, src, nil)

	b.Run(context.Background(), Closed())
	waitFor(t, b)

	if len(mem.Properties()) != 0 {
		t.Errorf("style context modified: %+v", mem.Properties())
	}
}

func TestMalformedCacheIsIgnored(t *testing.T) {
	fs := store.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	if err := fs.Set(context.Background(), store.PaletteKey, "garbage"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	src := &fakeSource{}
	b, mem := newTestBootstrap(t, src, store.NewPaletteCache(fs))

	b.Run(context.Background(), Signals{})
	waitFor(t, b)

	if len(mem.Properties()) != 0 {
		t.Errorf("malformed cache applied: %+v", mem.Properties())
	}
}

func TestCancelDropsPendingPasses(t *testing.T) {
	src := &fakeSource{loaded: true}
	mem := style.NewMemory()
	b, err := New(Config{Source: src, Style: mem, StructureDelay: time.Hour, ResourcesDelay: time.Hour})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	structure := make(chan struct{})
	b.Run(ctx, Signals{StructureReady: structure})
	cancel()

	waitFor(t, b)
	if src.readCount() != 0 {
		t.Errorf("image read %d times after cancel", src.readCount())
	}
}

func TestRefresh(t *testing.T) {
	src := &fakeSource{}
	b, _ := newTestBootstrap(t, src, nil)

	if _, err := b.Refresh(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Refresh() error = %v, want ErrNotLoaded", err)
	}

	src.load()
	got, err := b.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got != extractedPalette {
		t.Errorf("Refresh() = %+v, want %+v", got, extractedPalette)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Config{Style: style.NewMemory()}); err == nil {
		t.Error("New() accepted a nil source")
	}
	if _, err := New(Config{Source: &fakeSource{}}); err == nil {
		t.Error("New() accepted a nil style context")
	}
}

package image

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// Source is an image that may not be available yet.
type Source interface {
	// Loaded reports whether the image can be read right now.
	Loaded() bool

	// Image loads and decodes the image.
	Image(ctx context.Context) (image.Image, error)

	// OnLoad arranges for fn to be called once, the next time the image
	// becomes available. It does not call fn if the image is already loaded.
	OnLoad(ctx context.Context, fn func()) error
}

// FileSource is a Source backed by a local file, or a URL which is treated
// as always loaded. Load signals come from watching the parent directory.
type FileSource struct {
	path   string
	loader Loader
	logger hclog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending []func()
}

// NewFileSource creates a Source for path using loader.
func NewFileSource(path string, loader Loader, logger hclog.Logger) *FileSource {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FileSource{
		path:   path,
		loader: loader,
		logger: logger,
	}
}

// Path returns the configured path or URL.
func (s *FileSource) Path() string {
	return s.path
}

// Loaded reports whether the file exists and decodes in full. A file that
// is still being written has a valid header but fails here.
func (s *FileSource) Loaded() bool {
	if IsRemote(s.path) {
		return true
	}

	file, err := os.Open(s.path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return false
	}
	defer file.Close()

	_, _, err = image.Decode(file)
	return err == nil
}

// Image loads the image through the configured loader.
func (s *FileSource) Image(ctx context.Context) (image.Image, error) {
	return s.loader.Load(ctx, s.path)
}

// OnLoad registers fn to run once when the file is next created or written
// and decodes. The watch is torn down when ctx is cancelled or once no
// callbacks remain.
func (s *FileSource) OnLoad(ctx context.Context, fn func()) error {
	if IsRemote(s.path) {
		return fmt.Errorf("load signals are not available for remote images")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, fn)
	if s.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.pending = nil
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory: the file itself may not exist yet, and editors
	// often replace files by rename.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		s.pending = nil
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	s.watcher = watcher
	s.logger.Debug("waiting for image", "path", s.path)
	go s.watch(ctx, watcher)
	return nil
}

func (s *FileSource) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	target := filepath.Clean(s.path)
	defer s.stopWatching(watcher)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !s.Loaded() {
				// Partially written; wait for the next write.
				continue
			}
			s.logger.Debug("image loaded", "path", s.path, "op", ev.Op.String())
			s.fire(watcher)
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("image watcher error", "path", s.path, "error", err)
		}
	}
}

func (s *FileSource) fire(watcher *fsnotify.Watcher) {
	s.mu.Lock()
	callbacks := s.pending
	s.pending = nil
	if s.watcher == watcher {
		s.watcher = nil
	}
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

func (s *FileSource) stopWatching(watcher *fsnotify.Watcher) {
	s.mu.Lock()
	if s.watcher == watcher {
		s.watcher = nil
		s.pending = nil
	}
	s.mu.Unlock()
	watcher.Close()
}

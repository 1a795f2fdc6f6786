// Package watch reprocesses source images when they change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event for a file
// before it is handled. Editors and exporters often write a file in
// several steps.
const DefaultDebounce = 500 * time.Millisecond

// DefaultExtensions are the source image extensions watched by default.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Handler processes one changed file.
type Handler func(ctx context.Context, path string) error

// Options configures a Watcher.
type Options struct {
	Debounce   time.Duration
	Extensions []string // Lowercase, with leading dot
	Recursive  bool
	Initial    bool     // Handle existing files once at startup
	Ignore     []string // Directories never watched, e.g. the output dir
	Logger     *log.Logger
}

// Watcher debounces filesystem events under a directory and calls a
// handler for changed image files.
type Watcher struct {
	dir     string
	handler Handler
	opts    Options
	exts    map[string]bool
	ignore  []string
	logger  *log.Logger

	fs *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
	wg     sync.WaitGroup
}

// New creates a watcher for dir.
func New(dir string, handler Handler, opts Options) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("watch: handler is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", dir)
	}

	w := &Watcher{
		dir:     abs,
		handler: handler,
		opts:    opts,
		exts:    make(map[string]bool, len(opts.Extensions)),
		logger:  opts.Logger,
		timers:  make(map[string]*time.Timer),
	}
	for _, ext := range opts.Extensions {
		w.exts[strings.ToLower(ext)] = true
	}
	for _, ig := range opts.Ignore {
		if a, err := filepath.Abs(ig); err == nil {
			if a == abs {
				return nil, fmt.Errorf("watch: ignored directory %s is the watched directory", ig)
			}
			w.ignore = append(w.ignore, a)
		}
	}
	return w, nil
}

// Dir returns the absolute watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Matches reports whether path is a watched image file.
func (w *Watcher) Matches(path string) bool {
	base := filepath.Base(path)
	if base == "" || base[0] == '.' {
		return false
	}
	if w.ignored(filepath.Dir(path)) {
		return false
	}
	return w.exts[strings.ToLower(filepath.Ext(base))]
}

func (w *Watcher) ignored(dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	for _, ig := range w.ignore {
		if abs == ig || strings.HasPrefix(abs, ig+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Run watches until ctx is canceled. Pending debounced events are dropped
// on return; handlers already running are waited for.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w.fs = fsw
	defer func() {
		w.stopTimers()
		_ = fsw.Close()
		w.wg.Wait()
	}()

	if err := w.addTree(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching", "dir", w.dir, "recursive", w.opts.Recursive)

	if w.opts.Initial {
		w.scan(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Has(fsnotify.Create) && w.opts.Recursive {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.Matches(event.Name) {
		return
	}
	w.schedule(ctx, event.Name)
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		if w.closed {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()

		defer w.wg.Done()
		w.run(ctx, path)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) run(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return // Removed or renamed before the debounce fired
	}
	if err := w.handler(ctx, path); err != nil {
		w.logger.Error("process failed", "file", path, "error", err)
	}
}

// scan handles every matching file already present.
func (w *Watcher) scan(ctx context.Context) {
	_ = filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != w.dir && (!w.opts.Recursive || w.ignored(path) || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if w.Matches(path) {
			w.run(ctx, path)
		}
		return nil
	})
}

// addTree watches dir and, when recursive, its subdirectories.
func (w *Watcher) addTree(dir string) error {
	if !w.opts.Recursive {
		return w.fs.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != dir && (w.ignored(path) || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Package filesystem discovers documents in a local directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/logger"
	"github.com/custodia-labs/docsync/internal/segmenter"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// DefaultDebounce is how long Watch waits for a burst of events to settle.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("filesystem source closed")

// Source walks a directory tree and turns matching files into documents.
type Source struct {
	root      string
	prefix    string
	extension string
	debounce  time.Duration

	mu       sync.Mutex
	closed   bool
	watchers []*fsnotify.Watcher
}

// Option configures a Source.
type Option func(*Source)

// WithDebounce sets the quiet period Watch waits for before signalling.
func WithDebounce(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// New creates a source rooted at root. Document keys are file paths
// relative to prefix; extension filters files by suffix ("" keeps all).
func New(root, prefix, extension string, opts ...Option) *Source {
	s := &Source{
		root:      root,
		prefix:    prefix,
		extension: extension,
		debounce:  DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the directory the source walks.
func (s *Source) Root() string {
	return s.root
}

// Discover walks the tree and returns every matching document sorted by key.
// Symlinked directories and files are followed. Keys are built from the
// path as reached through the link, so a linked tree keeps its own keys.
func (s *Source) Discover(ctx context.Context) ([]domain.Document, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", s.root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path %s is not a directory: %w", s.root, domain.ErrInvalidInput)
	}

	prefix, err := filepath.Abs(s.prefix)
	if err != nil {
		return nil, fmt.Errorf("resolve prefix %s: %w", s.prefix, err)
	}

	w := &discovery{
		ctx:    ctx,
		source: s,
		prefix: prefix,
		open:   make(map[string]bool),
	}
	if err := w.walk(root); err != nil {
		return nil, err
	}

	docs := w.docs
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Path < docs[j].Path
	})
	logger.Debug("discovered %d documents under %s", len(docs), s.root)
	return docs, nil
}

// discovery holds the state of one Discover call.
type discovery struct {
	ctx    context.Context
	source *Source
	prefix string
	// open holds the resolved directories on the current descent path.
	open map[string]bool
	docs []domain.Document
}

func (w *discovery) walk(dir string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}
	if w.open[resolved] {
		return fmt.Errorf("walk %s: symlink loop back to %s: %w", dir, resolved, domain.ErrInvalidInput)
	}
	w.open[resolved] = true
	defer delete(w.open, resolved)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}

	for _, entry := range entries {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		if isHidden(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		// Stat follows links; a dangling link fails here and names the path.
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		switch {
		case info.IsDir():
			if err := w.walk(path); err != nil {
				return err
			}
		case info.Mode().IsRegular() && w.source.matches(path):
			if err := w.read(path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *discovery) read(path string) error {
	key, err := documentKey(w.prefix, path)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(content) {
		return fmt.Errorf("read %s: not valid UTF-8: %w", path, domain.ErrInvalidInput)
	}

	text := string(content)
	w.docs = append(w.docs, domain.Document{
		Path:     key,
		Content:  text,
		Metadata: segmenter.FrontMatter(text),
	})
	return nil
}

// Watch signals after every burst of changes to matching files.
// New directories are watched as they appear.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	root, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := s.addTree(watcher, root); err != nil {
		watcher.Close()
		return nil, err
	}
	s.watchers = append(s.watchers, watcher)

	signals := make(chan struct{}, 1)
	go s.watchLoop(ctx, watcher, signals)
	return signals, nil
}

func (s *Source) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, signals chan<- struct{}) {
	defer close(signals)
	defer watcher.Close()

	timer := time.NewTimer(s.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !s.relevant(watcher, event) {
				continue
			}
			timer.Reset(s.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.L().Warn("filesystem watch error", zap.String("root", s.root), zap.Error(err))

		case <-timer.C:
			select {
			case signals <- struct{}{}:
			default: // a signal is already pending
			}
		}
	}
}

// relevant reports whether event can change the document set.
// Newly created directories are added to the watcher.
func (s *Source) relevant(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if isHidden(filepath.Base(event.Name)) {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := s.addTree(watcher, event.Name); err != nil {
				logger.Warn("watch %s: %v", event.Name, err)
			}
			return true
		}
	}

	// A removed directory cannot be stat'ed, so any removal of a path
	// without the extension may still have taken documents with it.
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return true
	}
	return s.matches(event.Name)
}

func (s *Source) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Close stops every active watcher. It is safe to call more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, w := range s.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.watchers = nil
	return errors.Join(errs...)
}

func (s *Source) matches(path string) bool {
	return s.extension == "" || strings.HasSuffix(path, s.extension)
}

// documentKey returns path relative to prefix using forward slashes.
func documentKey(prefix, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	rel, err := filepath.Rel(prefix, abs)
	if err != nil {
		return "", fmt.Errorf("%s is not under prefix %s: %w", path, prefix, domain.ErrInvalidInput)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is not under prefix %s: %w", path, prefix, domain.ErrInvalidInput)
	}
	return filepath.ToSlash(rel), nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

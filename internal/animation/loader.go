package animation

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

// LoadError is an AnimationLoadFailure: the document could not be fetched
// or parsed. It is not cached, and the loader never retries on its own.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load animation %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Fetcher retrieves raw document bytes for a source path.
type Fetcher interface {
	Handles(path string) bool
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// FSFetcher reads documents from an afero filesystem. Paths starting with
// Prefix are served with the prefix stripped; an empty Prefix matches any
// path that is not an URL.
type FSFetcher struct {
	Fs     afero.Fs
	Prefix string
	Root   string
}

func (f *FSFetcher) Handles(path string) bool {
	if f.Prefix != "" {
		return strings.HasPrefix(path, f.Prefix)
	}
	return !strings.Contains(path, ":") || filepath.IsAbs(path)
}

func (f *FSFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(path, f.Prefix)
	if f.Root != "" && !filepath.IsAbs(name) {
		name = filepath.Join(f.Root, name)
	}
	return afero.ReadFile(f.Fs, name)
}

// HTTPFetcher downloads documents over http(s).
type HTTPFetcher struct {
	Client *http.Client
}

func (f *HTTPFetcher) Handles(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func (f *HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Loader fetches documents once per source path and keeps them for the
// rest of the session. The cache is append-only.
type Loader struct {
	fetchers []Fetcher
	logger   *log.Logger

	mu    sync.RWMutex
	cache map[string]*Document
	group singleflight.Group
	loads int // completed fetches, for tests and stats
}

// NewLoader creates a loader trying fetchers in order.
func NewLoader(logger *log.Logger, fetchers ...Fetcher) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		fetchers: fetchers,
		logger:   logger,
		cache:    make(map[string]*Document),
	}
}

// Cached returns a previously loaded document without fetching.
func (l *Loader) Cached(path string) (*Document, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	doc, ok := l.cache[path]
	return doc, ok
}

// Fetches returns how many documents were actually fetched.
func (l *Loader) Fetches() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loads
}

// Load returns the cached document for path, fetching it on first use.
// Concurrent loads of the same path share one fetch. The returned document
// is shared and must be treated as read-only; use an Injector to derive a
// private copy.
func (l *Loader) Load(ctx context.Context, path string) (*Document, error) {
	if doc, ok := l.Cached(path); ok {
		return doc, nil
	}
	v, err, _ := l.group.Do(path, func() (any, error) {
		if doc, ok := l.Cached(path); ok {
			return doc, nil
		}
		data, err := l.fetch(ctx, path)
		if err != nil {
			return nil, err
		}
		doc, err := Parse(data)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cache[path] = doc
		l.loads++
		l.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		l.logger.Printf("[!] Не удалось загрузить анимацию %s: %v", path, err)
		return nil, &LoadError{Path: path, Err: err}
	}
	return v.(*Document), nil
}

func (l *Loader) fetch(ctx context.Context, path string) ([]byte, error) {
	for _, f := range l.fetchers {
		if f.Handles(path) {
			return f.Fetch(ctx, path)
		}
	}
	return nil, fmt.Errorf("no fetcher for %q", path)
}

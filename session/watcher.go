package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Watcher adopts hub-issued tokens dropped as a file while the client is
// running. The hub writes the bearer token to a well-known path; the
// watcher picks it up, hands it to the Store and removes the file. This is
// the process-local equivalent of the hub passing the token in a URL query
// parameter.
type Watcher struct {
	store     *Store
	tokenPath string
	log       zerolog.Logger
	debounce  time.Duration
	onError   func(error)

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	running bool
}

// WatcherOption modifies a Watcher instance.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the watcher's logger.
func WithWatcherLogger(log zerolog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.log = log
	}
}

// WithAdoptionErrorHandler registers fn to receive malformed-token errors
// for user-facing messaging. Errors never stop the watcher.
func WithAdoptionErrorHandler(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// NewWatcher creates a Watcher that feeds tokenPath into store.
func NewWatcher(store *Store, tokenPath string, options ...WatcherOption) (*Watcher, error) {
	if store == nil {
		return nil, errors.New("[NewWatcher] store is required")
	}
	if strings.TrimSpace(tokenPath) == "" {
		return nil, errors.New("[NewWatcher] tokenPath is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "[NewWatcher] fsnotify.NewWatcher")
	}

	w := &Watcher{
		store:     store,
		tokenPath: tokenPath,
		log:       zerolog.Nop(),
		debounce:  100 * time.Millisecond,
		fsw:       fsw,
	}
	for _, opt := range options {
		opt(w)
	}
	return w, nil
}

// Start watches the drop file's directory until ctx is cancelled. A token
// already present at startup is adopted immediately.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("[Watcher.Start] already started")
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.tokenPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrap(err, "[Watcher.Start] MkdirAll")
	}
	if err := w.fsw.Add(dir); err != nil {
		return errors.Wrap(err, "[Watcher.Start] fsw.Add")
	}

	// A handoff that happened before we started watching.
	w.tryAdopt()

	go w.loop(ctx)
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != w.tokenPath {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			// Debounce: the hub may write in several chunks.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.tryAdopt)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("sso watcher error")
		}
	}
}

func (w *Watcher) tryAdopt() {
	data, err := os.ReadFile(w.tokenPath)
	if err != nil {
		if !os.IsNotExist(err) {
			w.log.Warn().Err(err).Str("path", w.tokenPath).Msg("failed reading sso token file")
		}
		return
	}

	rawToken := strings.TrimSpace(string(data))
	if rawToken == "" {
		return
	}

	// The drop file is single-use either way: a malformed token left in
	// place would be retried forever.
	if err := os.Remove(w.tokenPath); err != nil && !os.IsNotExist(err) {
		w.log.Warn().Err(err).Msg("failed removing sso token file")
	}

	if _, err := w.store.AdoptExternalToken(rawToken); err != nil {
		w.log.Warn().Err(err).Msg("rejected sso token")
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	w.log.Info().Msg("adopted hub session")
}

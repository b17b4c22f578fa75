package materials

import (
	"Walkthrough3D/internal/logger"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Resolver loads the textures a table refers to.
type Resolver func(ctx context.Context, table *Table) (TextureSet, error)

// Update is a reloaded table together with its textures.
type Update struct {
	Table    *Table
	Textures TextureSet
}

// Watcher reloads a rule file when it changes on disk and publishes the
// result. Every update is delivered, so the consumer owns the textures of
// each one and may skip to the latest.
type Watcher struct {
	path     string
	resolve  Resolver
	debounce time.Duration

	fs      *fsnotify.Watcher
	updates chan Update
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWatcher starts watching path. Events are debounced so an editor's save
// sequence triggers a single reload.
func NewWatcher(ctx context.Context, path string, resolve Resolver) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors often replace the file rather than write it.
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		path:     abs,
		resolve:  resolve,
		debounce: 150 * time.Millisecond,
		fs:       fs,
		updates:  make(chan Update, 1),
		cancel:   cancel,
	}
	w.wg.Add(1)
	go w.run(ctx)

	logger.Log.Info("Watching material rules", zap.String("path", abs))
	return w, nil
}

// Updates delivers reloaded tables. Drain it from the render thread.
func (w *Watcher) Updates() <-chan Update {
	return w.updates
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Log.Warn("Rule watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	table, err := LoadTable(w.path)
	if err != nil {
		logger.Log.Error("Reloading material rules failed, keeping current table",
			zap.String("path", w.path), zap.Error(err))
		return
	}
	for _, key := range table.UnknownKeys() {
		logger.Log.Warn("Rule references unknown texture", zap.String("texture", key))
	}
	textures, err := w.resolve(ctx, table)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Partial sets are still usable; missing keys bind as nil.
		logger.Log.Error("Some textures failed to load", zap.Error(err))
	}

	update := Update{Table: table, Textures: textures}
	select {
	case w.updates <- update:
		logger.Log.Info("Material rules reloaded", zap.Int("rules", len(table.Rules)))
	case <-ctx.Done():
	}
}

func (w *Watcher) Close() error {
	w.cancel()
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

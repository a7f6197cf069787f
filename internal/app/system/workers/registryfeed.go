// internal/app/system/workers/registryfeed.go
package workers

import (
	"context"
	"reflect"
	"sync"
	"time"

	registrationstore "github.com/dalemusser/splereg/internal/app/store/registrations"
	"github.com/dalemusser/splereg/internal/domain/models"
	"go.uber.org/zap"
)

// RegistrySource is the part of the registration store the feed reads.
type RegistrySource interface {
	List(ctx context.Context) ([]models.Registration, error)
	Watch(ctx context.Context) (registrationstore.ChangeEvents, error)
}

// RegistryFeed keeps the latest full, newest-first list of registrations
// and hands each new snapshot to its subscribers. It follows a change
// stream when the server supports one and polls otherwise.
type RegistryFeed struct {
	src          RegistrySource
	log          *zap.Logger
	pollInterval time.Duration
	retryDelay   time.Duration
	loadTimeout  time.Duration

	mu     sync.RWMutex
	latest []models.Registration
	loaded bool
	subs   []func([]models.Registration)

	reloadMu sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewRegistryFeed creates the feed worker.
//
// Parameters:
//   - src: the registrations store
//   - logger: zap logger for logging
//   - pollInterval: how often to re-list when change streams are unavailable
func NewRegistryFeed(src RegistrySource, logger *zap.Logger, pollInterval time.Duration) *RegistryFeed {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &RegistryFeed{
		src:          src,
		log:          logger,
		pollInterval: pollInterval,
		retryDelay:   2 * time.Second,
		loadTimeout:  10 * time.Second,
	}
}

// Subscribe registers fn to receive every published snapshot. Call before Start.
func (w *RegistryFeed) Subscribe(fn func([]models.Registration)) {
	w.mu.Lock()
	w.subs = append(w.subs, fn)
	w.mu.Unlock()
}

// Latest returns the most recent snapshot and whether one has been loaded.
// Callers must not modify the returned slice.
func (w *RegistryFeed) Latest() ([]models.Registration, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest, w.loaded
}

// Start begins following changes in the background.
func (w *RegistryFeed) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	go w.run(ctx)
	w.log.Info("registry feed started", zap.Duration("poll_interval", w.pollInterval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *RegistryFeed) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.log.Info("registry feed stopped")
}

// Reload lists the collection and publishes the result unconditionally.
func (w *RegistryFeed) Reload(ctx context.Context) error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	list, err := w.src.List(ctx)
	if err != nil {
		return err
	}
	w.publish(list)
	return nil
}

func (w *RegistryFeed) publish(list []models.Registration) {
	if list == nil {
		list = []models.Registration{}
	}
	w.mu.Lock()
	w.latest = list
	w.loaded = true
	subs := append(([]func([]models.Registration))(nil), w.subs...)
	w.mu.Unlock()

	for _, fn := range subs {
		fn(list)
	}
}

func (w *RegistryFeed) reload(ctx context.Context) {
	lctx, cancel := context.WithTimeout(ctx, w.loadTimeout)
	defer cancel()
	if err := w.Reload(lctx); err != nil && ctx.Err() == nil {
		w.log.Error("registry reload failed", zap.Error(err))
	}
}

func (w *RegistryFeed) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		// Open the stream before listing so a write landing in between
		// still produces an event.
		events, err := w.src.Watch(ctx)
		w.reload(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Info("change stream unavailable; polling", zap.Error(err))
			w.poll(ctx)
			return
		}

		for events.Next(ctx) {
			w.reload(ctx)
		}
		if err := events.Err(); err != nil && ctx.Err() == nil {
			w.log.Warn("change stream ended", zap.Error(err))
		}
		_ = events.Close(context.Background())

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryDelay):
		}
	}
}

// poll re-lists on a ticker and publishes only when the list differs.
func (w *RegistryFeed) poll(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pollOnce(ctx)
		}
	}
}

func (w *RegistryFeed) pollOnce(ctx context.Context) {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	lctx, cancel := context.WithTimeout(ctx, w.loadTimeout)
	defer cancel()

	list, err := w.src.List(lctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error("registry poll failed", zap.Error(err))
		}
		return
	}
	if list == nil {
		list = []models.Registration{}
	}
	prev, loaded := w.Latest()
	if loaded && reflect.DeepEqual(prev, list) {
		return
	}
	w.publish(list)
}

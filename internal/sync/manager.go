// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/tanjur/internal/config"
	"github.com/tomtom215/tanjur/internal/connectors"
	"github.com/tomtom215/tanjur/internal/logging"
	"github.com/tomtom215/tanjur/internal/models"
)

// ErrUnknownConnector is returned by SyncConnector for a service that has
// no registered connector.
var ErrUnknownConnector = errors.New("unknown connector")

// Manager runs the registered connectors through the reconcilers.
type Manager struct {
	live       *Reconciler
	dryRun     *Reconciler
	connectors []connectors.Connector
	cfg        config.SyncConfig

	syncMu sync.Mutex // serializes runs

	mu              sync.RWMutex
	lastResults     map[models.Service]models.SyncResult
	lastSync        time.Time
	onSyncCompleted func(results []models.SyncResult)
	running         bool
	stopChan        chan struct{}
	wg              sync.WaitGroup
}

// NewManager creates a manager. dryRun may be nil, in which case dry-run
// requests are refused.
func NewManager(live, dryRun *Reconciler, conns []connectors.Connector, cfg config.SyncConfig) *Manager {
	logging.Info().
		Dur("interval", cfg.Interval).
		Bool("on_startup", cfg.OnStartup).
		Bool("parallel", cfg.Parallel).
		Int("connectors", len(conns)).
		Msg("Sync manager config loaded")

	return &Manager{
		live:        live,
		dryRun:      dryRun,
		connectors:  conns,
		cfg:         cfg,
		lastResults: make(map[models.Service]models.SyncResult),
	}
}

// SetOnSyncCompleted sets the callback invoked after a live run whose
// results report a change (see models.SyncResult.Changed).
func (m *Manager) SetOnSyncCompleted(callback func(results []models.SyncResult)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSyncCompleted = callback
}

// Connectors returns the registered connectors in registry order.
func (m *Manager) Connectors() []connectors.Connector {
	out := make([]connectors.Connector, len(m.connectors))
	copy(out, m.connectors)
	return out
}

func (m *Manager) reconciler(dryRun bool) (*Reconciler, error) {
	if !dryRun {
		return m.live, nil
	}
	if m.dryRun == nil {
		return nil, errors.New("dry run is not available")
	}
	return m.dryRun, nil
}

// SyncAll runs every configured connector and returns one result per
// connector. An empty slice means no connector is configured.
func (m *Manager) SyncAll(ctx context.Context, dryRun bool) ([]models.SyncResult, error) {
	rec, err := m.reconciler(dryRun)
	if err != nil {
		return nil, err
	}
	enabled := connectors.Enabled(m.connectors)

	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	results := make([]models.SyncResult, len(enabled))
	if m.cfg.Parallel && len(enabled) > 1 {
		var wg sync.WaitGroup
		for i, conn := range enabled {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = rec.Sync(ctx, conn)
			}()
		}
		wg.Wait()
	} else {
		for i, conn := range enabled {
			results[i] = rec.Sync(ctx, conn)
		}
	}

	m.completed(results, dryRun)
	return results, nil
}

// SyncConnector runs the connector registered for service, configured or
// not. An unconfigured connector yields a result with a configuration error.
func (m *Manager) SyncConnector(ctx context.Context, service models.Service, dryRun bool) (models.SyncResult, error) {
	rec, err := m.reconciler(dryRun)
	if err != nil {
		return models.SyncResult{}, err
	}
	conn, ok := connectors.Find(m.connectors, service)
	if !ok {
		return models.SyncResult{}, fmt.Errorf("%w: %s", ErrUnknownConnector, service)
	}

	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	result := rec.Sync(logging.ContextWithNewCorrelationID(ctx), conn)
	m.completed([]models.SyncResult{result}, dryRun)
	return result, nil
}

func (m *Manager) completed(results []models.SyncResult, dryRun bool) {
	if dryRun {
		return
	}

	changed := false
	m.mu.Lock()
	for _, r := range results {
		m.lastResults[r.Service] = r
		changed = changed || r.Changed()
	}
	m.lastSync = time.Now()
	callback := m.onSyncCompleted
	m.mu.Unlock()

	if changed && callback != nil {
		callback(results)
	}
}

// LastResults returns the latest live result per connector in registry
// order. Connectors that never ran are omitted.
func (m *Manager) LastResults() []models.SyncResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.SyncResult, 0, len(m.lastResults))
	for _, c := range m.connectors {
		if r, ok := m.lastResults[c.Service()]; ok {
			out = append(out, r)
		}
	}
	return out
}

// LastResult returns the latest live result of one connector.
func (m *Manager) LastResult(service models.Service) (models.SyncResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.lastResults[service]
	return r, ok
}

// LastSyncTime returns when the last live run finished.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// Start begins periodic synchronization at cfg.Interval.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is already running")
	}
	if m.cfg.Interval <= 0 {
		m.mu.Unlock()
		return fmt.Errorf("sync interval must be positive, got %s", m.cfg.Interval)
	}
	m.running = true
	m.stopChan = make(chan struct{})
	m.mu.Unlock()

	logging.Info().Dur("interval", m.cfg.Interval).Msg("Starting sync manager...")

	m.wg.Add(1)
	go m.syncLoop(ctx, m.stopChan)
	return nil
}

func (m *Manager) syncLoop(ctx context.Context, stop <-chan struct{}) {
	defer m.wg.Done()

	if m.cfg.OnStartup {
		m.scheduledRun(ctx)
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			m.scheduledRun(ctx)
		}
	}
}

func (m *Manager) scheduledRun(ctx context.Context) {
	results, err := m.SyncAll(ctx, false)
	if err != nil {
		logging.Error().Err(err).Msg("Scheduled sync failed")
		return
	}
	if len(results) == 0 {
		logging.Warn().Msg("No connectors configured")
	}
}

// Stop stops the periodic loop and waits for an in-flight run to finish.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is not running")
	}
	m.running = false
	close(m.stopChan)
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")
	return nil
}

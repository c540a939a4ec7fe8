// Package app wires the bridge components into the two-operation
// surface consumed by the command dispatcher.
package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"mcpbridge/internal/domain"
	"mcpbridge/internal/infra/discovery"
	"mcpbridge/internal/infra/execution"
	"mcpbridge/internal/infra/index"
	"mcpbridge/internal/infra/telemetry"
)

// BridgeConfig wires a bridge. Store and Dialer are required; the
// rest defaults to working no-ops.
type BridgeConfig struct {
	Store   domain.ConfigStore
	Dialer  domain.SessionDialer
	Logger  *zap.Logger
	Metrics *telemetry.Metrics
	Sink    domain.StatusSink
	// SnapshotPath, when set, persists discovery results across
	// restarts.
	SnapshotPath string
}

// Bridge is the production ToolBridge implementation.
type Bridge struct {
	store   domain.ConfigStore
	cache   *discovery.Cache
	persist *discovery.Store
	index   *index.Index
	scan    *discovery.Engine
	run     *execution.Engine
	sink    domain.StatusSink
	logger  *zap.Logger

	// mu serializes discovery passes; execution reads the published
	// snapshot without it.
	mu sync.Mutex
}

// NewBridge builds a bridge and, when a snapshot path is configured,
// restores the previous discovery cache from disk.
func NewBridge(cfg BridgeConfig) (*Bridge, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("config store is required")
	}
	if cfg.Dialer == nil {
		return nil, fmt.Errorf("session dialer is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = domain.NopSink{}
	}
	options := cfg.Store.Options()

	cache := discovery.NewCache()
	var persist *discovery.Store
	if cfg.SnapshotPath != "" {
		store, err := discovery.OpenStore(cfg.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("open discovery snapshot: %w", err)
		}
		persist = store
		signature, entries, err := store.Load()
		if err != nil {
			logger.Warn("discarding unreadable discovery snapshot", zap.Error(err))
		} else if len(entries) > 0 {
			cache.Restore(signature, entries)
			logger.Info("discovery snapshot restored", zap.Int("servers", len(entries)))
		}
	}

	return &Bridge{
		store:   cfg.Store,
		cache:   cache,
		persist: persist,
		index:   index.NewIndex(),
		scan: discovery.NewEngine(discovery.EngineOptions{
			Dialer:  cfg.Dialer,
			Cache:   cache,
			Logger:  logger,
			Metrics: cfg.Metrics,
			Sink:    sink,
			Timeout: options.DiscoveryTimeout,
		}),
		run: execution.NewEngine(execution.EngineOptions{
			Dialer:  cfg.Dialer,
			Logger:  logger,
			Metrics: cfg.Metrics,
			Sink:    sink,
			Timeout: options.ExecutionTimeout,
		}),
		sink:   sink,
		logger: logger.Named("bridge"),
	}, nil
}

// BuildSyntax runs a discovery pass, publishes the rebuilt catalog,
// and returns its command descriptors. With no active servers it
// publishes an empty catalog without dialing anything.
func (b *Bridge) BuildSyntax(ctx context.Context) ([]domain.SyntaxEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	servers := b.store.Servers()
	options := b.store.Options()

	active := 0
	for _, server := range servers {
		if server.Active {
			active++
		}
	}
	if active == 0 {
		b.index.Publish(nil)
		return nil, nil
	}

	found, err := b.scan.Discover(ctx, servers, discovery.PassOptions{
		CacheEnabled: options.CacheEnabled,
		TTL:          options.CacheTTL,
	})
	if err != nil {
		return nil, err
	}

	snapshot := index.Build(found, b.logger)
	b.index.Publish(snapshot)
	b.savePersisted()

	b.logger.Info("catalog published",
		zap.Int("servers", active),
		zap.Int("commands", len(snapshot.Entries)))
	b.sink.Status(fmt.Sprintf("MCP: %d tools available", len(snapshot.Entries)))
	return snapshot.Syntax(), nil
}

// Execute runs a call batch against the currently published catalog.
// Results come back one per request, in request order.
func (b *Bridge) Execute(ctx context.Context, batch []domain.CallRequest) ([]domain.ExecutionResult, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	return b.run.Execute(ctx, b.index.Current(), batch), nil
}

// Catalog returns the currently published snapshot.
func (b *Bridge) Catalog() *index.Snapshot {
	return b.index.Current()
}

// Close releases the persisted snapshot store.
func (b *Bridge) Close() error {
	if b.persist == nil {
		return nil
	}
	return b.persist.Close()
}

func (b *Bridge) savePersisted() {
	if b.persist == nil {
		return
	}
	signature, entries := b.cache.Export()
	if err := b.persist.Save(signature, entries); err != nil {
		b.logger.Warn("persisting discovery snapshot failed", zap.Error(err))
	}
}

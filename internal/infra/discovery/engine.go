package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mcpbridge/internal/domain"
	"mcpbridge/internal/infra/telemetry"
)

// Discovered is one tool found on one server, carrying the identity
// needed to index and later execute it.
type Discovered struct {
	Server   domain.ServerConfig
	Endpoint domain.Endpoint
	Key      string
	Tag      string
	Tool     domain.RemoteTool
}

// PassOptions control one discovery pass.
type PassOptions struct {
	CacheEnabled bool
	TTL          time.Duration
}

// EngineOptions configure a discovery engine.
type EngineOptions struct {
	Dialer  domain.SessionDialer
	Cache   *Cache
	Logger  *zap.Logger
	Metrics *telemetry.Metrics
	Sink    domain.StatusSink
	Timeout time.Duration
}

const defaultDiscoveryTimeout = 15 * time.Second

// Engine visits configured servers and collects their tool lists. A
// failing server never blocks the others.
type Engine struct {
	dialer  domain.SessionDialer
	cache   *Cache
	logger  *zap.Logger
	metrics *telemetry.Metrics
	sink    domain.StatusSink
	timeout time.Duration
}

// NewEngine builds a discovery engine.
func NewEngine(options EngineOptions) *Engine {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cache := options.Cache
	if cache == nil {
		cache = NewCache()
	}
	sink := options.Sink
	if sink == nil {
		sink = domain.NopSink{}
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultDiscoveryTimeout
	}
	return &Engine{
		dialer:  options.Dialer,
		cache:   cache,
		logger:  logger.Named("discovery"),
		metrics: options.Metrics,
		sink:    sink,
		timeout: timeout,
	}
}

// Discover runs one pass over the given servers. Inactive servers are
// skipped, and any per-server failure is logged and dropped without
// affecting the rest. Results keep server order, then remote order.
func (e *Engine) Discover(ctx context.Context, servers []domain.ServerConfig, options PassOptions) ([]Discovered, error) {
	signature, err := domain.ConfigSignature(servers)
	if err != nil {
		return nil, err
	}
	if e.cache.SyncSignature(signature) {
		e.logger.Info("server configuration changed, cache purged")
	}

	var out []Discovered
	for _, server := range servers {
		if !server.Active {
			continue
		}
		endpoint, err := domain.ParseAddress(server.Address)
		if err != nil {
			e.logger.Warn("skipping server with invalid address",
				zap.Int("server", server.Index),
				zap.String("label", server.Label),
				zap.Error(err))
			e.sink.Log("MCP: invalid server address: " + err.Error())
			continue
		}
		key := domain.ServerKey(endpoint, server.Address)
		tag := domain.ServerTag(server, endpoint)

		tools, fromCache := e.lookupCache(key, endpoint.Kind, options)
		if !fromCache {
			tools, err = e.listServer(ctx, server, endpoint)
			if err != nil {
				e.metrics.DiscoveryServer(string(endpoint.Kind), "error")
				e.logger.Warn("server discovery failed",
					zap.String("tag", tag),
					zap.String("transport", string(endpoint.Kind)),
					zap.Error(err))
				e.sink.Log("MCP: server '" + tag + "' unavailable: " + err.Error())
				continue
			}
			e.metrics.DiscoveryServer(string(endpoint.Kind), "ok")
			if options.CacheEnabled {
				e.cache.Put(key, endpoint.Kind, tools)
			}
		} else {
			e.metrics.DiscoveryServer(string(endpoint.Kind), "cache")
		}

		kept := 0
		for _, tool := range tools {
			if tool.Name == "" {
				continue
			}
			if !allowed(server, tool.Name) {
				continue
			}
			out = append(out, Discovered{
				Server:   server,
				Endpoint: endpoint,
				Key:      key,
				Tag:      tag,
				Tool:     tool,
			})
			kept++
		}
		e.logger.Debug("server discovered",
			zap.String("tag", tag),
			zap.Bool("cached", fromCache),
			zap.Int("tools", len(tools)),
			zap.Int("kept", kept))
	}
	return out, nil
}

func (e *Engine) lookupCache(key string, transport domain.TransportKind, options PassOptions) ([]domain.RemoteTool, bool) {
	if !options.CacheEnabled {
		return nil, false
	}
	return e.cache.Get(key, transport, options.TTL)
}

func (e *Engine) listServer(ctx context.Context, server domain.ServerConfig, endpoint domain.Endpoint) ([]domain.RemoteTool, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	session, err := e.dialer.Dial(ctx, server, endpoint)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			e.logger.Debug("session close failed", zap.Error(err))
		}
	}()

	start := time.Now()
	tools, err := session.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	e.metrics.ListDuration(string(endpoint.Kind), time.Since(start))
	return tools, nil
}

// allowed applies per-server allow and deny lists. Deny always wins,
// and a non-empty allow list admits only its members.
func allowed(server domain.ServerConfig, name string) bool {
	for _, denied := range server.Deny {
		if denied == name {
			return false
		}
	}
	if len(server.Allow) == 0 {
		return true
	}
	for _, admitted := range server.Allow {
		if admitted == name {
			return true
		}
	}
	return false
}

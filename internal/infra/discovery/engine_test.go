package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpbridge/internal/domain"
)

type fakeSession struct {
	tools  []domain.RemoteTool
	err    error
	closed bool
}

func (s *fakeSession) ListTools(context.Context) ([]domain.RemoteTool, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tools, nil
}

func (s *fakeSession) CallTool(context.Context, string, map[string]any) (domain.CallOutcome, error) {
	return domain.CallOutcome{}, errors.New("not implemented")
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeDialer struct {
	sessions map[string]*fakeSession
	dialErr  map[string]error
	dials    int
}

func (d *fakeDialer) Dial(_ context.Context, cfg domain.ServerConfig, _ domain.Endpoint) (domain.Session, error) {
	d.dials++
	if err, ok := d.dialErr[cfg.Address]; ok {
		return nil, err
	}
	session, ok := d.sessions[cfg.Address]
	if !ok {
		return nil, errors.New("no session for " + cfg.Address)
	}
	return session, nil
}

func activeServer(index int, address string) domain.ServerConfig {
	return domain.ServerConfig{Index: index, Address: address, Active: true}
}

func TestDiscoverCollectsAllServers(t *testing.T) {
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"stdio:npx alpha":        {tools: testTools("search", "fetch")},
		"http://example.com/mcp": {tools: testTools("query")},
	}}
	engine := NewEngine(EngineOptions{Dialer: dialer})

	found, err := engine.Discover(context.Background(), []domain.ServerConfig{
		activeServer(0, "stdio:npx alpha"),
		activeServer(1, "http://example.com/mcp"),
	}, PassOptions{})
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "search", found[0].Tool.Name)
	assert.Equal(t, "fetch", found[1].Tool.Name)
	assert.Equal(t, "query", found[2].Tool.Name)
	assert.Equal(t, domain.TransportStdio, found[0].Endpoint.Kind)
	assert.Equal(t, domain.TransportHTTP, found[2].Endpoint.Kind)
	assert.Equal(t, 2, dialer.dials)
}

func TestDiscoverIsolatesFailingServer(t *testing.T) {
	dialer := &fakeDialer{
		sessions: map[string]*fakeSession{
			"stdio:npx alpha": {tools: testTools("search")},
		},
		dialErr: map[string]error{
			"http://broken.example/mcp": errors.New("connection refused"),
		},
	}
	engine := NewEngine(EngineOptions{Dialer: dialer})

	found, err := engine.Discover(context.Background(), []domain.ServerConfig{
		activeServer(0, "http://broken.example/mcp"),
		activeServer(1, "stdio:npx alpha"),
	}, PassOptions{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "search", found[0].Tool.Name)
}

func TestDiscoverSkipsInactiveAndInvalid(t *testing.T) {
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"stdio:npx alpha": {tools: testTools("search")},
	}}
	engine := NewEngine(EngineOptions{Dialer: dialer})

	found, err := engine.Discover(context.Background(), []domain.ServerConfig{
		{Index: 0, Address: "stdio:npx alpha", Active: true},
		{Index: 1, Address: "stdio:other", Active: false},
		{Index: 2, Address: "", Active: true},
	}, PassOptions{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 1, dialer.dials)
}

func TestDiscoverCacheHitSkipsDial(t *testing.T) {
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"stdio:npx alpha": {tools: testTools("search")},
	}}
	engine := NewEngine(EngineOptions{Dialer: dialer})
	servers := []domain.ServerConfig{activeServer(0, "stdio:npx alpha")}
	options := PassOptions{CacheEnabled: true, TTL: time.Minute}

	first, err := engine.Discover(context.Background(), servers, options)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, dialer.dials)

	second, err := engine.Discover(context.Background(), servers, options)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, dialer.dials, "second pass served from cache")
}

func TestDiscoverSignatureChangeRedials(t *testing.T) {
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"stdio:npx alpha": {tools: testTools("search")},
	}}
	engine := NewEngine(EngineOptions{Dialer: dialer})
	options := PassOptions{CacheEnabled: true, TTL: time.Hour}

	servers := []domain.ServerConfig{activeServer(0, "stdio:npx alpha")}
	_, err := engine.Discover(context.Background(), servers, options)
	require.NoError(t, err)

	changed := []domain.ServerConfig{
		activeServer(0, "stdio:npx alpha"),
		{Index: 1, Address: "stdio:other", Active: false},
	}
	changed[0].Label = "renamed"
	_, err = engine.Discover(context.Background(), changed, options)
	require.NoError(t, err)
	assert.Equal(t, 2, dialer.dials, "signature change forces a fresh dial")
}

func TestDiscoverCacheDisabledAlwaysDials(t *testing.T) {
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"stdio:npx alpha": {tools: testTools("search")},
	}}
	engine := NewEngine(EngineOptions{Dialer: dialer})
	servers := []domain.ServerConfig{activeServer(0, "stdio:npx alpha")}

	for range 3 {
		_, err := engine.Discover(context.Background(), servers, PassOptions{CacheEnabled: false, TTL: time.Hour})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, dialer.dials)
}

func TestDiscoverAllowDenyFilter(t *testing.T) {
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"stdio:npx alpha": {tools: testTools("search", "fetch", "delete")},
	}}
	engine := NewEngine(EngineOptions{Dialer: dialer})

	server := activeServer(0, "stdio:npx alpha")
	server.Allow = []string{"search", "delete"}
	server.Deny = []string{"delete"}

	found, err := engine.Discover(context.Background(), []domain.ServerConfig{server}, PassOptions{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "search", found[0].Tool.Name)
}

func TestDiscoverClosesSessions(t *testing.T) {
	session := &fakeSession{tools: testTools("search")}
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"stdio:npx alpha": session,
	}}
	engine := NewEngine(EngineOptions{Dialer: dialer})

	_, err := engine.Discover(context.Background(), []domain.ServerConfig{
		activeServer(0, "stdio:npx alpha"),
	}, PassOptions{})
	require.NoError(t, err)
	assert.True(t, session.closed)
}

func TestDiscoverSkipsNamelessTools(t *testing.T) {
	dialer := &fakeDialer{sessions: map[string]*fakeSession{
		"stdio:npx alpha": {tools: []domain.RemoteTool{{Name: ""}, {Name: "search"}}},
	}}
	engine := NewEngine(EngineOptions{Dialer: dialer})

	found, err := engine.Discover(context.Background(), []domain.ServerConfig{
		activeServer(0, "stdio:npx alpha"),
	}, PassOptions{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "search", found[0].Tool.Name)
}

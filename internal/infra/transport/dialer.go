// Package transport opens MCP client sessions over stdio, streamable
// HTTP and SSE endpoints.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"mcpbridge/internal/domain"
)

// Dialer opens one session per call. Sessions are not pooled; each
// discovery pass and execution group dials and tears down its own.
type Dialer struct {
	logger  *zap.Logger
	impl    *mcp.Implementation
	retries int
}

// DialerOptions configures a Dialer.
type DialerOptions struct {
	Logger        *zap.Logger
	ClientName    string
	ClientVersion string
	MaxRetries    int
}

// NewDialer creates a dialer for the configured client identity.
func NewDialer(opts DialerOptions) *Dialer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := opts.ClientName
	if name == "" {
		name = "mcpbridge"
	}
	version := opts.ClientVersion
	if version == "" {
		version = "dev"
	}
	return &Dialer{
		logger:  logger.Named("dialer"),
		impl:    &mcp.Implementation{Name: name, Version: version},
		retries: opts.MaxRetries,
	}
}

// Dial opens and initializes a session for the endpoint. The returned
// session must be closed by the caller on every exit path.
func (d *Dialer) Dial(ctx context.Context, cfg domain.ServerConfig, ep domain.Endpoint) (domain.Session, error) {
	t, err := d.buildTransport(ctx, cfg, ep)
	if err != nil {
		return nil, err
	}
	client := mcp.NewClient(d.impl, nil)
	session, err := client.Connect(ctx, t, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", ep.Kind, err)
	}
	return &clientSession{session: session, logger: d.logger}, nil
}

func (d *Dialer) buildTransport(ctx context.Context, cfg domain.ServerConfig, ep domain.Endpoint) (mcp.Transport, error) {
	switch ep.Kind {
	case domain.TransportStdio:
		if len(ep.Command) == 0 {
			return nil, fmt.Errorf("%w: command is required for stdio", domain.ErrInvalidAddress)
		}
		cmd := exec.CommandContext(ctx, ep.Command[0], ep.Command[1:]...)
		cmd.Env = os.Environ()
		return &mcp.CommandTransport{Command: cmd}, nil
	case domain.TransportHTTP:
		return &mcp.StreamableClientTransport{
			Endpoint:   ep.URL,
			HTTPClient: httpClientFor(cfg),
			MaxRetries: d.retries,
		}, nil
	case domain.TransportSSE:
		return &mcp.SSEClientTransport{
			Endpoint:   ep.URL,
			HTTPClient: httpClientFor(cfg),
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", domain.ErrInvalidAddress, ep.Kind)
	}
}

func httpClientFor(cfg domain.ServerConfig) *http.Client {
	headers := http.Header{}
	if auth := strings.TrimSpace(cfg.Authorization); auth != "" {
		headers.Set("Authorization", auth)
	}
	if len(headers) == 0 {
		return http.DefaultClient
	}
	return &http.Client{
		Transport: &headerRoundTripper{
			base:    http.DefaultTransport,
			headers: headers,
		},
	}
}

// headerRoundTripper attaches fixed headers to every outgoing request.
type headerRoundTripper struct {
	base    http.RoundTripper
	headers http.Header
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	for key, values := range h.headers {
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return h.base.RoundTrip(req)
}

type clientSession struct {
	session *mcp.ClientSession
	logger  *zap.Logger
	closed  atomic.Bool
}

func (s *clientSession) ListTools(ctx context.Context) ([]domain.RemoteTool, error) {
	if s.closed.Load() {
		return nil, domain.ErrSessionClosed
	}
	var out []domain.RemoteTool
	cursor := ""
	for {
		result, err := s.session.ListTools(ctx, &mcp.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, fmt.Errorf("tools/list: %w", err)
		}
		for _, tool := range result.Tools {
			if tool == nil || tool.Name == "" {
				continue
			}
			out = append(out, domain.RemoteTool{
				Name:        tool.Name,
				Title:       tool.Title,
				Description: tool.Description,
				InputSchema: tool.InputSchema,
			})
		}
		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	return out, nil
}

func (s *clientSession) CallTool(ctx context.Context, name string, args map[string]any) (domain.CallOutcome, error) {
	if s.closed.Load() {
		return domain.CallOutcome{}, domain.ErrSessionClosed
	}
	if strings.TrimSpace(name) == "" {
		return domain.CallOutcome{}, errors.New("tool name is required")
	}
	result, err := s.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return domain.CallOutcome{}, fmt.Errorf("tools/call %s: %w", name, err)
	}
	outcome := domain.CallOutcome{
		Structured: result.StructuredContent,
		IsError:    result.IsError,
	}
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok && text.Text != "" {
			outcome.Text = append(outcome.Text, text.Text)
		}
	}
	return outcome, nil
}

func (s *clientSession) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if err := s.session.Close(); err != nil {
		s.logger.Debug("close session failed", zap.Error(err))
		return err
	}
	return nil
}

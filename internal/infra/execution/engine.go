// Package execution dispatches requested invocations to their remote
// servers and collects results in input order.
package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mcpbridge/internal/domain"
	"mcpbridge/internal/infra/index"
	"mcpbridge/internal/infra/schema"
	"mcpbridge/internal/infra/telemetry"
)

const defaultExecutionTimeout = 60 * time.Second

// EngineOptions configure an execution engine.
type EngineOptions struct {
	Dialer  domain.SessionDialer
	Logger  *zap.Logger
	Metrics *telemetry.Metrics
	Sink    domain.StatusSink
	Timeout time.Duration
}

// Engine executes call batches against a published catalog snapshot.
// Calls for the same server share one session; servers run
// concurrently and fail independently.
type Engine struct {
	dialer  domain.SessionDialer
	logger  *zap.Logger
	metrics *telemetry.Metrics
	sink    domain.StatusSink
	timeout time.Duration
}

// NewEngine builds an execution engine.
func NewEngine(options EngineOptions) *Engine {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sink := options.Sink
	if sink == nil {
		sink = domain.NopSink{}
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultExecutionTimeout
	}
	return &Engine{
		dialer:  options.Dialer,
		logger:  logger.Named("execution"),
		metrics: options.Metrics,
		sink:    sink,
		timeout: timeout,
	}
}

// groupItem ties one batch request to its catalog entry and its slot
// in the result slice.
type groupItem struct {
	slot    int
	request domain.CallRequest
	entry   domain.ToolIndexEntry
}

// Execute runs a batch against the snapshot. The returned slice has
// exactly one result per request, in request order, regardless of
// which calls failed.
func (e *Engine) Execute(ctx context.Context, snapshot *index.Snapshot, batch []domain.CallRequest) []domain.ExecutionResult {
	results := make([]domain.ExecutionResult, len(batch))
	batchID := uuid.NewString()

	groups := map[string][]groupItem{}
	var order []string
	for i, request := range batch {
		results[i] = domain.ExecutionResult{Request: request}
		entry, ok := snapshot.Lookup(request.Command)
		if !ok {
			results[i].Err = fmt.Sprintf("unknown command %q: %s", request.Command, domain.ErrToolNotFound)
			e.metrics.ExecutionCall("none", "error")
			continue
		}
		if _, seen := groups[entry.ServerKey]; !seen {
			order = append(order, entry.ServerKey)
		}
		groups[entry.ServerKey] = append(groups[entry.ServerKey], groupItem{
			slot:    i,
			request: request,
			entry:   entry,
		})
	}

	e.logger.Debug("executing batch",
		zap.String("batch", batchID),
		zap.Int("requests", len(batch)),
		zap.Int("servers", len(order)))

	var wg sync.WaitGroup
	for _, key := range order {
		items := groups[key]
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.runGroup(ctx, batchID, items, results)
		}()
	}
	wg.Wait()
	return results
}

// runGroup dials one server and runs its calls in order. Each item
// writes only its own slot, so groups need no shared locking.
func (e *Engine) runGroup(ctx context.Context, batchID string, items []groupItem, results []domain.ExecutionResult) {
	entry := items[0].entry
	transport := string(entry.Endpoint.Kind)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	session, err := e.dialer.Dial(ctx, entry.Server, entry.Endpoint)
	if err != nil {
		e.logger.Warn("server dial failed",
			zap.String("batch", batchID),
			zap.String("tag", entry.Tag),
			zap.Error(err))
		e.sink.Log("MCP: server '" + entry.Tag + "' unavailable: " + err.Error())
		for _, item := range items {
			results[item.slot].Err = "server '" + entry.Tag + "' unavailable: " + err.Error()
			e.metrics.ExecutionCall(transport, "error")
		}
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			e.logger.Debug("session close failed", zap.Error(err))
		}
	}()

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			results[item.slot].Err = "call aborted: " + err.Error()
			e.metrics.ExecutionCall(transport, "error")
			continue
		}
		args := schema.Coerce(item.entry.InputSchema, item.request.Params)
		outcome, err := session.CallTool(ctx, item.entry.RemoteName, args)
		if err != nil {
			results[item.slot].Err = "call failed: " + err.Error()
			e.metrics.ExecutionCall(transport, "error")
			e.logger.Warn("tool call failed",
				zap.String("batch", batchID),
				zap.String("command", item.request.Command),
				zap.Error(err))
			continue
		}
		rendered := renderOutcome(outcome)
		if outcome.IsError {
			results[item.slot].Err = rendered
			e.metrics.ExecutionCall(transport, "error")
			continue
		}
		results[item.slot].Text = rendered
		e.metrics.ExecutionCall(transport, "ok")
	}
}

// renderOutcome flattens a tool result to text. Structured output
// wins over content blocks, and an empty result still yields a
// non-empty string.
func renderOutcome(outcome domain.CallOutcome) string {
	if outcome.Structured != nil {
		encoded, err := json.MarshalIndent(outcome.Structured, "", "  ")
		if err == nil {
			return string(encoded)
		}
	}
	if len(outcome.Text) > 0 {
		return strings.Join(outcome.Text, "\n")
	}
	return "no result"
}

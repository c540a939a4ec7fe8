// Package index turns discovery results into the published command
// catalog the dispatcher sees.
package index

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"mcpbridge/internal/domain"
	"mcpbridge/internal/infra/discovery"
	"mcpbridge/internal/infra/naming"
	"mcpbridge/internal/infra/schema"
)

// Snapshot is one immutable build of the command catalog.
type Snapshot struct {
	Entries []domain.ToolIndexEntry
	byName  map[string]int
}

// Build composes a snapshot from discovery results. Command names are
// assigned in input order, so a rebuild over the same results yields
// the same names.
func Build(discovered []discovery.Discovered, logger *zap.Logger) *Snapshot {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("index")

	composer := naming.NewComposer()
	snapshot := &Snapshot{
		Entries: make([]domain.ToolIndexEntry, 0, len(discovered)),
		byName:  make(map[string]int, len(discovered)),
	}
	for _, d := range discovered {
		command := composer.Compose(d.Tag, d.Tool.Name)
		entry := domain.ToolIndexEntry{
			Command:     command,
			Server:      d.Server,
			Endpoint:    d.Endpoint,
			ServerKey:   d.Key,
			Tag:         d.Tag,
			RemoteName:  d.Tool.Name,
			Title:       d.Tool.Title,
			Description: d.Tool.Description,
			InputSchema: d.Tool.InputSchema,
			Params:      schema.Descriptors(d.Tool.InputSchema),
		}
		snapshot.byName[command] = len(snapshot.Entries)
		snapshot.Entries = append(snapshot.Entries, entry)
	}
	logger.Debug("catalog built", zap.Int("commands", len(snapshot.Entries)))
	return snapshot
}

// Lookup returns the entry published under a command name.
func (s *Snapshot) Lookup(command string) (domain.ToolIndexEntry, bool) {
	if s == nil {
		return domain.ToolIndexEntry{}, false
	}
	i, ok := s.byName[command]
	if !ok {
		return domain.ToolIndexEntry{}, false
	}
	return s.Entries[i], true
}

// Syntax renders the snapshot as dispatcher-facing command
// descriptors.
func (s *Snapshot) Syntax() []domain.SyntaxEntry {
	if s == nil {
		return nil
	}
	out := make([]domain.SyntaxEntry, 0, len(s.Entries))
	for _, entry := range s.Entries {
		params := make([]domain.SyntaxParam, 0, len(entry.Params))
		for _, p := range entry.Params {
			params = append(params, domain.SyntaxParam{
				Name:        p.Name,
				Type:        string(p.Type),
				Description: p.Description,
			})
		}
		out = append(out, domain.SyntaxEntry{
			Command:     entry.Command,
			Instruction: instruction(entry),
			Params:      params,
			Enabled:     true,
		})
	}
	return out
}

// instruction renders the one-line usage text for a command. The
// remote title is preferred for display, and missing pieces degrade to
// shorter forms rather than empty text.
func instruction(entry domain.ToolIndexEntry) string {
	display := entry.Title
	if display == "" {
		display = entry.RemoteName
	}
	switch {
	case display != "" && entry.Description != "":
		return fmt.Sprintf("%s: %s (server: %s)", display, entry.Description, entry.Tag)
	case entry.Description != "":
		return fmt.Sprintf("%s (server: %s)", entry.Description, entry.Tag)
	default:
		return fmt.Sprintf("Call remote tool '%s' on server '%s'.", display, entry.Tag)
	}
}

// Index holds the currently published snapshot. Readers always see a
// complete catalog: Publish replaces the whole snapshot at once.
type Index struct {
	current atomic.Pointer[Snapshot]
}

// NewIndex returns an index publishing an empty snapshot.
func NewIndex() *Index {
	idx := &Index{}
	idx.current.Store(&Snapshot{byName: map[string]int{}})
	return idx
}

// Publish swaps in a new snapshot.
func (i *Index) Publish(snapshot *Snapshot) {
	if snapshot == nil {
		snapshot = &Snapshot{byName: map[string]int{}}
	}
	i.current.Store(snapshot)
}

// Current returns the published snapshot.
func (i *Index) Current() *Snapshot {
	return i.current.Load()
}

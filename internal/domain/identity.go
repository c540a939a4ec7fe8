package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
)

// ServerKey derives the cache identity for a server. Two configs with
// the same effective address and transport share a key regardless of
// label or auth changes.
func ServerKey(ep Endpoint, address string) string {
	trimmed := strings.TrimSpace(address)
	switch ep.Kind {
	case TransportHTTP:
		u, err := url.Parse(trimmed)
		if err != nil {
			return "http::" + trimmed
		}
		return "http::" + u.Host + u.Path
	case TransportSSE:
		return "sse::" + trimmed
	default:
		cmdline := trimmed
		if rest, ok := stdioRemainder(trimmed); ok {
			cmdline = strings.TrimSpace(rest)
		}
		return "stdio::" + cmdline
	}
}

func stdioRemainder(address string) (string, bool) {
	if strings.HasPrefix(strings.ToLower(address), "stdio:") {
		return address[len("stdio:"):], true
	}
	return "", false
}

// ServerTag derives a display tag for naming. Tags are never identity:
// an explicit label wins, then the executable name (stdio) or the
// host plus final path segment (http/sse), then "server_<index>".
func ServerTag(cfg ServerConfig, ep Endpoint) string {
	if label := strings.TrimSpace(cfg.Label); label != "" {
		return label
	}
	switch ep.Kind {
	case TransportStdio:
		if len(ep.Command) > 0 {
			if base := path.Base(strings.ReplaceAll(ep.Command[0], "\\", "/")); base != "" && base != "." && base != "/" {
				return base
			}
		}
	case TransportHTTP, TransportSSE:
		if u, err := url.Parse(ep.URL); err == nil && u.Host != "" {
			if seg := lastPathSegment(u.Path); seg != "" {
				return u.Host + "_" + seg
			}
			return u.Host
		}
	}
	return fmt.Sprintf("server_%d", cfg.Index)
}

func lastPathSegment(p string) string {
	p = strings.TrimRight(p, "/")
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[idx+1:]
}

type signatureEntry struct {
	Index   int      `json:"index"`
	Label   string   `json:"label"`
	Address string   `json:"address"`
	HasAuth bool     `json:"hasAuth"`
	Allow   []string `json:"allow"`
	Deny    []string `json:"deny"`
}

// ConfigSignature hashes the ordered list of active server configs.
// The discovery cache is purged wholesale whenever the signature
// changes between passes, so edits to any server (add, remove,
// relabel, re-address, allow/deny changes) invalidate cached tool
// lists without forcing re-discovery when nothing changed.
func ConfigSignature(servers []ServerConfig) (string, error) {
	entries := make([]signatureEntry, 0, len(servers))
	for _, srv := range servers {
		if !srv.Active {
			continue
		}
		entries = append(entries, signatureEntry{
			Index:   srv.Index,
			Label:   srv.Label,
			Address: srv.Address,
			HasAuth: srv.Authorization != "",
			Allow:   sortedCopy(srv.Allow),
			Deny:    sortedCopy(srv.Deny),
		})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshal config signature: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func sortedCopy(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

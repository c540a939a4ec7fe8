package domain

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ParseAddress classifies a connection string into a transport kind and
// connection parameters. Classification is a pure function of the
// input:
//
//   - "stdio: <command> [args...]" (case-insensitive prefix) is stdio;
//     the remainder is shell-tokenized.
//   - "sse://", "sse+http://" and "sse+https://" are sse.
//   - "http://" and "https://" are http, unless the final path segment
//     is "sse", in which case they are sse.
//   - Any other non-empty string is treated as a stdio command line.
//     This fallback is kept for backward compatibility with existing
//     configurations.
func ParseAddress(address string) (Endpoint, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return Endpoint{}, ErrEmptyAddress
	}
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "stdio:"):
		return parseStdio(trimmed[len("stdio:"):])
	case strings.HasPrefix(lower, "sse+http://"):
		return Endpoint{Kind: TransportSSE, URL: "http://" + trimmed[len("sse+http://"):]}, nil
	case strings.HasPrefix(lower, "sse+https://"):
		return Endpoint{Kind: TransportSSE, URL: "https://" + trimmed[len("sse+https://"):]}, nil
	case strings.HasPrefix(lower, "sse://"):
		return Endpoint{Kind: TransportSSE, URL: "http://" + trimmed[len("sse://"):]}, nil
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		if hasSSEPath(trimmed) {
			return Endpoint{Kind: TransportSSE, URL: trimmed}, nil
		}
		return Endpoint{Kind: TransportHTTP, URL: trimmed}, nil
	default:
		return parseStdio(trimmed)
	}
}

func parseStdio(commandLine string) (Endpoint, error) {
	tokens, err := shellquote.Split(strings.TrimSpace(commandLine))
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: tokenize command line: %v", ErrInvalidAddress, err)
	}
	if len(tokens) == 0 {
		return Endpoint{}, fmt.Errorf("%w: command line is empty", ErrInvalidAddress)
	}
	return Endpoint{Kind: TransportStdio, Command: tokens}, nil
}

// hasSSEPath reports whether the final path segment of an http(s) URL
// is "sse". Query and fragment are ignored.
func hasSSEPath(address string) bool {
	u, err := url.Parse(address)
	if err != nil {
		return false
	}
	path := strings.TrimRight(u.Path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return false
	}
	return strings.EqualFold(path[idx+1:], "sse")
}

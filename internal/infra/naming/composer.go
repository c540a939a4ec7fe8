// Package naming composes dispatcher command identifiers from server
// tags and remote tool names.
package naming

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
)

// MaxNameLength is the dispatcher's hard limit on command identifiers.
const MaxNameLength = 64

const hashSuffixLength = 7 // "-" plus six hex digits

var invalidRuns = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Slug restricts a string to [A-Za-z0-9_-]: runs of other characters
// collapse to a single underscore, leading/trailing underscores are
// trimmed, and an empty result becomes "srv".
func Slug(s string) string {
	out := invalidRuns.ReplaceAllString(s, "_")
	out = strings.Trim(out, "_")
	if out == "" {
		return "srv"
	}
	return out
}

// Composer assigns unique command names within one index build. Names
// are order-dependent: collisions are resolved by suffixing later
// entries, never by renaming earlier ones.
type Composer struct {
	used map[string]struct{}
}

// NewComposer returns a composer with no names in use.
func NewComposer() *Composer {
	return &Composer{used: make(map[string]struct{})}
}

// Compose returns a unique name for (serverTag, toolName) matching
// ^[A-Za-z0-9_-]{1,64}$ and marks it used. Results are deterministic
// given the same inputs and the same prior set of used names.
func (c *Composer) Compose(serverTag, toolName string) string {
	base := shorten(Slug(serverTag) + "__" + Slug(toolName))

	name := base
	for n := 2; ; n++ {
		if _, taken := c.used[name]; !taken {
			break
		}
		suffix := "-" + strconv.Itoa(n)
		name = base
		if len(name)+len(suffix) > MaxNameLength {
			name = name[:MaxNameLength-len(suffix)]
		}
		name += suffix
	}
	c.used[name] = struct{}{}
	return name
}

// shorten bounds a name at MaxNameLength by truncating and appending a
// short hash of the untruncated base, keeping long names distinct.
func shorten(base string) string {
	if len(base) <= MaxNameLength {
		return base
	}
	sum := sha1.Sum([]byte(base))
	return base[:MaxNameLength-hashSuffixLength] + "-" + hex.EncodeToString(sum[:])[:6]
}

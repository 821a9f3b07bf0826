// Package catalog discovers data files under attached folders and registers
// them as queryable tables in DuckDB, one schema per folder.
package catalog

import (
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// SafeName converts a display name (file stem or sheet name) into an
// identifier that never needs quoting: lowercase, [a-z0-9_] only, runs of
// other characters collapsed to a single underscore. Names that would start
// with a digit get a t_ prefix; empty results become "t".
func SafeName(display string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(display) {
		switch {
		case r >= 'a' && r <= 'z' || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "t"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "t_" + name
	}
	return name
}

// Names maps display names to unique internal identifiers within one schema
// and back. Lookups are case-insensitive on the display side. Safe to use
// from multiple goroutines.
type Names struct {
	mu         sync.RWMutex
	byDisplay  map[string]string // lower(display) -> internal
	byInternal map[string]string // internal -> display
}

// NewNames creates an empty name registry.
func NewNames() *Names {
	return &Names{
		byDisplay:  make(map[string]string),
		byInternal: make(map[string]string),
	}
}

// Register assigns an internal name for display and returns it. Registering
// the same display twice returns the existing assignment. Distinct displays
// that sanitize to the same identifier get numeric suffixes.
func (n *Names) Register(display string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	key := strings.ToLower(display)
	if internal, ok := n.byDisplay[key]; ok {
		return internal
	}

	base := SafeName(display)
	internal := base
	for i := 2; ; i++ {
		if _, taken := n.byInternal[internal]; !taken {
			break
		}
		internal = base + "_" + strconv.Itoa(i)
	}
	n.byDisplay[key] = internal
	n.byInternal[internal] = display
	return internal
}

// Resolve returns the internal name for a display name. Internal names also
// resolve to themselves so already-rewritten SQL passes through unchanged.
func (n *Names) Resolve(display string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if internal, ok := n.byDisplay[strings.ToLower(display)]; ok {
		return internal, true
	}
	if _, ok := n.byInternal[display]; ok {
		return display, true
	}
	return "", false
}

// Package readings stores the named state fields the module publishes.
package readings

import (
	"context"
	"sort"
	"strings"
	"time"
)

const subsystem = "Store"

// Reading is one published state field
type Reading struct {
	Value string    `json:"value"`
	Time  time.Time `json:"time"`
}

// Store persists readings of a single device
type Store interface {
	// Update writes all values in one bulk operation
	Update(ctx context.Context, values map[string]string) error
	Get(ctx context.Context, name string) (string, bool, error)
	// Delete removes the reading named pattern, or every reading starting
	// with the prefix when pattern ends in '*'
	Delete(ctx context.Context, pattern string) error
	Snapshot(ctx context.Context) (map[string]Reading, error)
}

// Match reports whether name is selected by a Delete pattern
func Match(pattern, name string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return pattern == name
}

// Names returns the sorted reading names of a snapshot
func Names(snapshot map[string]Reading) []string {
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

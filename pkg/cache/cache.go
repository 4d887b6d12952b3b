// Package cache provides byte caches for signal data, layouts and rendered
// artifacts.
//
// # Backends
//
//   - [MemoryCache]: in-process map with expiry, the default for the server
//   - [FileCache]: one file per entry behind an expiry header, used by the
//     CLI between runs
//   - [RedisCache]: shared cache for several server instances
//   - [NullCache]: caching disabled
//
// # Keys
//
// A [Keyer] derives cache keys from the inputs that determine a cached
// value. [DefaultKeyer] hashes those inputs; [ScopedKeyer] prefixes every key
// so several tenants or environments can share one backend.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache stores opaque byte values by key.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default time-to-live per entry kind.
const (
	TTLSignal   = 24 * time.Hour
	TTLLayout   = time.Hour
	TTLArtifact = time.Hour
)

// Keyer derives cache keys.
type Keyer interface {
	// SignalKey is the key of the raw CSV bytes of one signal level.
	SignalKey(source string, level int) string

	// LayoutKey is the key of a reconciled layout of a score.
	LayoutKey(scoreHash string, opts LayoutKeyOpts) string

	// ArtifactKey is the key of a rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds the inputs that change a layout.
type LayoutKeyOpts struct {
	Width             float64 `json:"width"`
	MinMeasureWidth   float64 `json:"min_measure_width"`
	MaxPerSystem      int     `json:"max_per_system"`
	CapRedistribution bool    `json:"cap_redistribution"`
	Level             int     `json:"level"`
	Signal            string  `json:"signal,omitempty"` // source name of the signal levels
	Config            string  `json:"config,omitempty"` // hash of the remaining tuning
}

// ArtifactKeyOpts holds the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format      string `json:"format"`
	MinimaLines bool   `json:"minima_lines"`
}

// DefaultKeyer hashes key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SignalKey returns "signal:<source>:<level>". Sources are short paths or
// URLs, so the key stays readable.
func (DefaultKeyer) SignalKey(source string, level int) string {
	return fmt.Sprintf("signal:%s:%d", source, level)
}

// LayoutKey hashes the score hash together with the layout inputs.
func (DefaultKeyer) LayoutKey(scoreHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", scoreHash, opts)
}

// ArtifactKey hashes the layout hash together with the render inputs.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}

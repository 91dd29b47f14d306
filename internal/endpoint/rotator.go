// Package endpoint holds the ordered set of RPC endpoints a trader cycles through.
package endpoint

import (
	"errors"
	"log/slog"
	"strings"
)

// ErrNoEndpoints is returned when a rotator is built from an empty endpoint list.
var ErrNoEndpoints = errors.New("endpoint: at least one endpoint is required")

// Rotator is a fixed, ordered endpoint list with a current index.
// Rotation advances the index and wraps around; it never runs out.
// A Rotator is owned by a single goroutine and is not safe for concurrent use.
type Rotator struct {
	endpoints []string
	index     int
	logger    *slog.Logger
}

// NewRotator creates a rotator over endpoints, starting at the first one.
// Blank entries are dropped; the list is copied.
func NewRotator(endpoints []string, logger *slog.Logger) (*Rotator, error) {
	list := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		e = strings.TrimSpace(e)
		if e != "" {
			list = append(list, e)
		}
	}
	if len(list) == 0 {
		return nil, ErrNoEndpoints
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rotator{
		endpoints: list,
		logger:    logger.With(slog.String("component", "rotator")),
	}, nil
}

// Current returns the active endpoint.
func (r *Rotator) Current() string {
	return r.endpoints[r.index]
}

// Rotate advances to the next endpoint and returns it.
func (r *Rotator) Rotate() string {
	r.index = (r.index + 1) % len(r.endpoints)
	endpoint := r.endpoints[r.index]
	r.logger.Info("rotating to RPC endpoint", slog.String("endpoint", endpoint))
	return endpoint
}

// Len returns the number of endpoints.
func (r *Rotator) Len() int {
	return len(r.endpoints)
}

// Endpoints returns a copy of the endpoint list in rotation order.
func (r *Rotator) Endpoints() []string {
	out := make([]string, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

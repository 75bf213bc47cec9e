// Package metric keeps per-minute histories of expvar counters for the status API.
package metric

import (
	"encoding/json"
	"expvar"
	"slices"
	"strings"
	"sync"
	"time"
)

// HistoryLen is the number of samples kept by a History.  One more than an hour, as clients chart
// the deltas between samples.
const HistoryLen = 61

var (
	samplersMu sync.Mutex
	samplers   []func()
	startOnce  sync.Once
)

// History samples a source expvar once per minute.  It is itself an expvar, rendering the samples
// as a comma separated string.
type History struct {
	mu      sync.Mutex
	src     expvar.Var
	samples []string // Oldest first.
}

var _ expvar.Var = &History{}

// NewHistory creates a History of src and registers it with the minute ticker.
func NewHistory(src expvar.Var) *History {
	h := &History{src: src}
	samplersMu.Lock()
	samplers = append(samplers, h.Sample)
	samplersMu.Unlock()
	startOnce.Do(func() { go sampleEvery(time.Minute) })
	return h
}

// Sample records the current value of the source, discarding the oldest sample beyond
// HistoryLen.
func (h *History) Sample() {
	v := h.src.String()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = append(h.samples, v)
	if n := len(h.samples); n > HistoryLen {
		h.samples = slices.Delete(h.samples, 0, n-HistoryLen)
	}
}

// String implements expvar.Var, returning a JSON string.
func (h *History) String() string {
	h.mu.Lock()
	joined := strings.Join(h.samples, ",")
	h.mu.Unlock()
	b, _ := json.Marshal(joined)
	return string(b)
}

func sampleEvery(interval time.Duration) {
	for range time.Tick(interval) {
		samplersMu.Lock()
		fs := slices.Clone(samplers)
		samplersMu.Unlock()
		for _, f := range fs {
			f()
		}
	}
}

package metrics

import (
	"sync"
	"time"
)

type NoopRecorder struct{}

func (NoopRecorder) IncCounter(string, map[string]string)                    {}
func (NoopRecorder) ObserveLatency(string, time.Duration, map[string]string) {}

// CountingRecorder tallies counters by name. Latencies are dropped.
type CountingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *CountingRecorder) IncCounter(name string, _ map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[name]++
}

func (c *CountingRecorder) ObserveLatency(string, time.Duration, map[string]string) {}

// Count returns how many times name was incremented.
func (c *CountingRecorder) Count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

package system

import (
	"maps"
	"sync"
)

type gauges struct {
	values map[string]float64
	mu     sync.RWMutex
}

func newGauges() *gauges {
	return &gauges{values: make(map[string]float64)}
}

func (g *gauges) Set(name string, v float64) {
	g.mu.Lock()
	g.values[name] = v
	g.mu.Unlock()
}

func (g *gauges) Add(name string, d float64) {
	g.mu.Lock()
	g.values[name] += d
	g.mu.Unlock()
}

func (g *gauges) Snapshot() map[string]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]float64, len(g.values))
	maps.Copy(out, g.values)
	return out
}

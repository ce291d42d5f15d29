// Package system implements a collector that samples Go runtime stats and
// host CPU/RAM usage into named gauges for the journal.
package system

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/andrasq/kstats/internal/ports"
)

// Gauge names reported by the collector.
const (
	GHeapAlloc    = "go.heap_alloc"
	GHeapSys      = "go.heap_sys"
	GHeapObjects  = "go.heap_objects"
	GStackInuse   = "go.stack_inuse"
	GGCPauseTotal = "go.gc_pause_total_ns"
	GNumGC        = "go.num_gc"
	GGoroutines   = "go.goroutines"
	GPollCount    = "collector.polls"
	GTotalMemory  = "host.mem_total"
	GFreeMemory   = "host.mem_free"
	GCPUPrefix    = "host.cpu"
)

// Collector periodically samples Go runtime stats plus host CPU/RAM gauges.
type Collector struct {
	st   *gauges
	stop chan struct{}
	wg   sync.WaitGroup
}

var _ ports.Collector = (*Collector)(nil)

// New creates a Collector with its own gauge storage.
func New() *Collector {
	return &Collector{
		st:   newGauges(),
		stop: make(chan struct{}),
	}
}

// Start launches background goroutines that sample runtime and host gauges
// at the given interval.
func (c *Collector) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("poll interval must be > 0, got %v", interval)
	}

	t := time.NewTicker(interval)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer t.Stop()
		var ms runtime.MemStats
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-t.C:
				runtime.ReadMemStats(&ms)
				c.st.Set(GHeapAlloc, float64(ms.HeapAlloc))
				c.st.Set(GHeapSys, float64(ms.HeapSys))
				c.st.Set(GHeapObjects, float64(ms.HeapObjects))
				c.st.Set(GStackInuse, float64(ms.StackInuse))
				c.st.Set(GGCPauseTotal, float64(ms.PauseTotalNs))
				c.st.Set(GNumGC, float64(ms.NumGC))
				c.st.Set(GGoroutines, float64(runtime.NumGoroutine()))
				c.st.Add(GPollCount, 1)
			}
		}
	}()

	tSys := time.NewTicker(interval)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer tSys.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-tSys.C:
				if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
					c.st.Set(GTotalMemory, float64(vm.Total))
					c.st.Set(GFreeMemory, float64(vm.Free))
				}
				if pct, err := cpu.Percent(0, true); err == nil {
					for i, p := range pct {
						c.st.Set(fmt.Sprintf("%s%d", GCPUPrefix, i+1), p)
					}
				}
			}
		}
	}()

	return nil
}

// Stop signals every collector goroutine to halt and waits for them.
func (c *Collector) Stop() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	c.wg.Wait()
}

// Snapshot copies the current gauge values.
func (c *Collector) Snapshot() map[string]float64 {
	return c.st.Snapshot()
}

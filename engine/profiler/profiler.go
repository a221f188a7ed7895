package profiler

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-cascade/common"
)

// Profiler tracks frame rate, named section timings and memory statistics.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	mu             sync.Mutex
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	sections map[string]time.Duration

	// now is swapped in tests.
	now func() time.Time
}

// Report is one interval's worth of statistics.
type Report struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
	SysMB       float64
	// Sections holds the average time per frame spent in each measured section.
	Sections map[string]time.Duration
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - interval: how often Tick reports; values <= 0 default to one second
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		sections:       make(map[string]time.Duration),
		now:            time.Now,
	}
}

// Measure starts timing a named section of the current frame.
//
// Parameters:
//   - name: the section name, e.g. "render"
//
// Returns:
//   - func(): call to stop timing
func (p *Profiler) Measure(name string) func() {
	start := p.now()
	return func() {
		elapsed := p.now().Sub(start)
		p.mu.Lock()
		p.sections[name] += elapsed
		p.mu.Unlock()
	}
}

// Tick should be called once per frame. When the update interval has elapsed it logs and returns
// the interval's statistics.
//
// Returns:
//   - *Report: the statistics, or nil if the interval has not elapsed
func (p *Profiler) Tick() *Report {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return nil
	}

	runtime.ReadMemStats(&p.memStats)
	r := &Report{
		FPS:     float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:  float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:   float64(p.memStats.Sys) / 1024 / 1024,
		GCCount: p.memStats.NumGC,
	}
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	r.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	if gcCount := p.memStats.NumGC; gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		r.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > r.MaxPauseUs {
				r.MaxPauseUs = pause
			}
		}
	}

	r.Sections = make(map[string]time.Duration, len(p.sections))
	for name, total := range p.sections {
		r.Sections[name] = total / time.Duration(p.frameCount)
	}

	keyvals := []any{
		"fps", r.FPS,
		"heap_mb", r.HeapMB,
		"alloc_rate_mb", r.AllocRateMB,
		"gc", r.GCCount,
		"gc_last_us", r.LastPauseUs,
		"gc_max_us", r.MaxPauseUs,
		"sys_mb", r.SysMB,
	}
	names := make([]string, 0, len(r.Sections))
	for name := range r.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		keyvals = append(keyvals, name, r.Sections[name])
	}
	common.LogInfo("profiler", keyvals...)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	clear(p.sections)
	return r
}

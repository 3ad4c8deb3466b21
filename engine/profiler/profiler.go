package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
)

// Report is one interval's worth of frame statistics.
type Report struct {
	FPS float64
	// Drawn and Skipped are per-frame averages over the interval.
	Drawn   float64
	Skipped float64
	// SkipReasons counts skipped drawables by reason over the whole interval.
	SkipReasons map[scene.SkipReason]int
	Lights      int
	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	MaxPauseUs  uint64
}

// Profiler aggregates frame statistics and logs them at a fixed interval.
type Profiler struct {
	logger         *slog.Logger
	now            func() time.Time
	frameCount     int
	drawn          int
	skipped        map[scene.SkipReason]int
	lights         int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         slog.Default(),
		now:            time.Now,
		skipped:        make(map[scene.SkipReason]int),
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick records one drawn frame. When the update interval has elapsed it logs a report and starts
// a new interval.
//
// Parameters:
//   - stats: the frame's draw statistics
//
// Returns:
//   - Report: the interval report, valid when the bool is true
//   - bool: true if a report was produced this tick
func (p *Profiler) Tick(stats scene.DrawStats) (Report, bool) {
	p.frameCount++
	p.drawn += stats.Drawn
	p.lights = stats.Lights
	for reason, n := range stats.Skipped {
		p.skipped[reason] += n
	}

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Report{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	skippedTotal := 0
	for _, n := range p.skipped {
		skippedTotal += n
	}
	frames := float64(p.frameCount)
	r := Report{
		FPS:         frames / elapsed.Seconds(),
		Drawn:       float64(p.drawn) / frames,
		Skipped:     float64(skippedTotal) / frames,
		SkipReasons: p.skipped,
		Lights:      p.lights,
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     gcCount,
		MaxPauseUs:  maxPauseUs,
	}

	p.logger.Info("frame stats",
		"fps", r.FPS,
		"drawn", r.Drawn,
		"skipped", r.Skipped,
		"light_count", r.Lights,
		"heap_mb", r.HeapMB,
		"alloc_rate_mb", r.AllocRateMB,
		"gc", r.GCCount,
		"max_pause_us", r.MaxPauseUs,
	)
	for reason, n := range r.SkipReasons {
		p.logger.Debug("skipped drawables", "reason", reason, "count", n)
	}

	p.frameCount = 0
	p.drawn = 0
	p.skipped = make(map[scene.SkipReason]int)
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return r, true
}

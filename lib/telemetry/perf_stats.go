package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("cquschedule.lib.telemetry")

var (
	cpuGauge, _         = meter.Float64Gauge("cpu_usage")
	heapGauge, _        = meter.Int64Gauge("heap_mb")
	liveObjectsGauge, _ = meter.Int64Gauge("live_objects")
	goroutineGauge, _   = meter.Int64Gauge("goroutines")
)

const perfSampleInterval = 30 * time.Second

// InstrumentPerfStats samples process health gauges until ctx ends.
// Used by the refresh sweep, the only part of the system that fans
// out across every stored user.
func InstrumentPerfStats(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(perfSampleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				samplePerfStats(ctx)
			}
		}
	}()
}

func samplePerfStats(ctx context.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	heapGauge.Record(ctx, int64(memStats.Alloc/1_000_000))
	liveObjectsGauge.Record(ctx, int64(memStats.Mallocs)-int64(memStats.Frees))
	goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))

	usage, err := cpu.Percent(time.Minute, false)
	if err != nil {
		slog.Warn("failed to read cpu usage", "err", err)
		return
	}
	cpuGauge.Record(ctx, usage[0])
}

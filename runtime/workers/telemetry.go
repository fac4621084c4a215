package workers

import (
	"anonchat/runtime"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Telemetry periodically logs session gauges together with process
// self-stats (RSS, CPU). Pure observability; it never mutates the registry.
type Telemetry struct {
	log      *slog.Logger
	registry *runtime.Registry
	interval time.Duration
}

func NewTelemetry(log *slog.Logger, registry *runtime.Registry, interval time.Duration) *Telemetry {
	return &Telemetry{log: log, registry: registry, interval: interval}
}

func (w *Telemetry) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			stats := w.registry.Stats()
			w.log.Info("Session telemetry",
				"active_pairs", stats.ActivePairs,
				"waiting", stats.Waiting,
				"known_users", stats.KnownUsers,
				"ram_bytes", rss,
				"cpu_percent", cpu,
			)
		}
	}
}

// selfStats retrieves memory and CPU usage for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}

package health

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// MemoryProbe is KO when used memory exceeds maxPercent of the total.
func MemoryProbe(maxPercent float64, timeout time.Duration) Probe {
	return Probe{
		Name:    "system-memory",
		Timeout: timeout,
		Check: func(ctx context.Context) (Result, error) {
			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				return Result{}, fmt.Errorf("read memory stats: %w", err)
			}
			data := map[string]any{
				"available-memory": humanize.Bytes(vm.Available),
				"total-memory":     humanize.Bytes(vm.Total),
				"used-percent":     round2(vm.UsedPercent),
			}
			if vm.UsedPercent > maxPercent {
				return KO(data), nil
			}
			return OK(data), nil
		},
	}
}

// LoadProbe is KO when the one-minute load average per logical CPU exceeds
// maxPerCPU.
func LoadProbe(maxPerCPU float64, timeout time.Duration) Probe {
	return Probe{
		Name:    "system-load",
		Timeout: timeout,
		Check: func(ctx context.Context) (Result, error) {
			avg, err := load.AvgWithContext(ctx)
			if err != nil {
				return Result{}, fmt.Errorf("read load average: %w", err)
			}
			cpus, err := cpu.CountsWithContext(ctx, true)
			if err != nil || cpus < 1 {
				cpus = 1
			}
			data := map[string]any{
				"load":   round2(avg.Load1),
				"load5":  round2(avg.Load5),
				"load15": round2(avg.Load15),
				"cpus":   cpus,
			}
			if avg.Load1/float64(cpus) > maxPerCPU {
				return KO(data), nil
			}
			return OK(data), nil
		},
	}
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

package providers

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CPUProvider emits aggregate CPU usage. Usage is computed from the delta
// between consecutive /proc/stat samples, so the first refresh reports zero.
type CPUProvider struct {
	interval time.Duration
	statPath string

	mutex sync.Mutex
	last  cpuSample
}

type cpuSample struct {
	idle  uint64
	total uint64
	valid bool
}

func NewCPUProvider(interval time.Duration) *CPUProvider {
	return &CPUProvider{interval: interval, statPath: "/proc/stat"}
}

func (p *CPUProvider) Name() string { return "cpu" }

func (p *CPUProvider) RefreshInterval() time.Duration { return p.interval }

func (p *CPUProvider) Refresh(ctx context.Context) (map[string]interface{}, error) {
	data, err := os.ReadFile(p.statPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.statPath, err)
	}

	sample, err := parseCPUSample(string(data))
	if err != nil {
		return nil, err
	}

	p.mutex.Lock()
	usage := usageBetween(p.last, sample)
	p.last = sample
	p.mutex.Unlock()

	return map[string]interface{}{
		"usage":              round1(usage),
		"logical_core_count": runtime.NumCPU(),
	}, nil
}

// parseCPUSample extracts the aggregate cpu line from /proc/stat content.
func parseCPUSample(content string) (cpuSample, error) {
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || fields[0] != "cpu" {
			continue
		}

		var sample cpuSample
		for i, field := range fields[1:] {
			value, err := strconv.ParseUint(field, 10, 64)
			if err != nil {
				return cpuSample{}, fmt.Errorf("malformed cpu line in /proc/stat: %q", line)
			}
			sample.total += value
			// Fields 4 and 5 are idle and iowait.
			if i == 3 || i == 4 {
				sample.idle += value
			}
		}
		sample.valid = true
		return sample, nil
	}

	return cpuSample{}, fmt.Errorf("no aggregate cpu line in /proc/stat")
}

// usageBetween returns the busy percentage across two samples.
func usageBetween(prev, curr cpuSample) float64 {
	if !prev.valid || curr.total <= prev.total {
		return 0
	}

	totalDelta := float64(curr.total - prev.total)
	idleDelta := float64(curr.idle - prev.idle)
	return (totalDelta - idleDelta) / totalDelta * 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

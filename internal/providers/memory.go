package providers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MemoryProvider emits RAM and swap readings from /proc/meminfo, in bytes.
type MemoryProvider struct {
	interval    time.Duration
	meminfoPath string
}

func NewMemoryProvider(interval time.Duration) *MemoryProvider {
	return &MemoryProvider{interval: interval, meminfoPath: "/proc/meminfo"}
}

func (p *MemoryProvider) Name() string { return "memory" }

func (p *MemoryProvider) RefreshInterval() time.Duration { return p.interval }

func (p *MemoryProvider) Refresh(ctx context.Context) (map[string]interface{}, error) {
	data, err := os.ReadFile(p.meminfoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.meminfoPath, err)
	}

	return parseMeminfo(string(data))
}

func parseMeminfo(content string) (map[string]interface{}, error) {
	readings := make(map[string]uint64)
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		key := strings.TrimSuffix(fields[0], ":")
		value, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		// meminfo values are in kB.
		readings[key] = value * 1024
	}

	total, ok := readings["MemTotal"]
	if !ok || total == 0 {
		return nil, fmt.Errorf("no MemTotal in /proc/meminfo")
	}

	available := readings["MemAvailable"]
	used := total - available

	return map[string]interface{}{
		"total_memory":     total,
		"free_memory":      readings["MemFree"],
		"available_memory": available,
		"used_memory":      used,
		"usage":            round1(float64(used) / float64(total) * 100),
		"total_swap":       readings["SwapTotal"],
		"free_swap":        readings["SwapFree"],
		"used_swap":        readings["SwapTotal"] - readings["SwapFree"],
	}, nil
}

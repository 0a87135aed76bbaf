package providers

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// HostProvider emits machine identity and uptime.
type HostProvider struct {
	interval   time.Duration
	uptimePath string
}

func NewHostProvider(interval time.Duration) *HostProvider {
	return &HostProvider{interval: interval, uptimePath: "/proc/uptime"}
}

func (p *HostProvider) Name() string { return "host" }

func (p *HostProvider) RefreshInterval() time.Duration { return p.interval }

func (p *HostProvider) Refresh(ctx context.Context) (map[string]interface{}, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, err
	}

	variables := map[string]interface{}{
		"hostname": hostname,
		"os":       runtime.GOOS,
		"arch":     runtime.GOARCH,
	}

	if uptime, ok := readUptime(p.uptimePath); ok {
		variables["uptime_seconds"] = int64(uptime)
	}

	return variables, nil
}

// readUptime parses the first field of /proc/uptime. Absent on non-Linux
// hosts, where the field is simply omitted.
func readUptime(path string) (float64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, false
	}

	uptime, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return uptime, true
}

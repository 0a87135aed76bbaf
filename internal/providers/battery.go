package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BatteryProvider emits charge state from the first battery under
// /sys/class/power_supply.
type BatteryProvider struct {
	interval   time.Duration
	supplyPath string
}

func NewBatteryProvider(interval time.Duration) *BatteryProvider {
	return &BatteryProvider{interval: interval, supplyPath: "/sys/class/power_supply"}
}

func (p *BatteryProvider) Name() string { return "battery" }

func (p *BatteryProvider) RefreshInterval() time.Duration { return p.interval }

func (p *BatteryProvider) Refresh(ctx context.Context) (map[string]interface{}, error) {
	batteryDir, err := p.findBattery()
	if err != nil {
		return nil, err
	}

	capacity, err := readIntFile(filepath.Join(batteryDir, "capacity"))
	if err != nil {
		return nil, err
	}

	status, err := readStringFile(filepath.Join(batteryDir, "status"))
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"charge_percent": capacity,
		"state":          strings.ToLower(status),
		"is_charging":    status == "Charging",
	}, nil
}

func (p *BatteryProvider) findBattery() (string, error) {
	entries, err := os.ReadDir(p.supplyPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", p.supplyPath, err)
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "BAT") {
			return filepath.Join(p.supplyPath, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("no battery under %s", p.supplyPath)
}

func readIntFile(path string) (int, error) {
	value, err := readStringFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

func readStringFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

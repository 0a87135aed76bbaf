package providers

import (
	"context"
	"time"
)

// ClockProvider emits the current local time, broken into template-friendly
// fields.
type ClockProvider struct {
	interval time.Duration

	// now is swapped out in tests.
	now func() time.Time
}

func NewClockProvider(interval time.Duration) *ClockProvider {
	return &ClockProvider{interval: interval, now: time.Now}
}

func (p *ClockProvider) Name() string { return "clock" }

func (p *ClockProvider) RefreshInterval() time.Duration { return p.interval }

func (p *ClockProvider) Refresh(ctx context.Context) (map[string]interface{}, error) {
	now := p.now()

	return map[string]interface{}{
		"time":    now.Format("15:04"),
		"seconds": now.Format("15:04:05"),
		"hour":    now.Hour(),
		"minute":  now.Minute(),
		"date":    now.Format("2006-01-02"),
		"weekday": now.Weekday().String(),
		"unix":    now.Unix(),
	}, nil
}

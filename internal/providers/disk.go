package providers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// DiskProvider emits one entry per mounted block device, with total and
// available space in bytes.
type DiskProvider struct {
	interval   time.Duration
	mountsPath string
	statfs     func(path string) (total, available uint64, err error)
}

func NewDiskProvider(interval time.Duration) *DiskProvider {
	return &DiskProvider{
		interval:   interval,
		mountsPath: "/proc/mounts",
		statfs:     statfsSpace,
	}
}

func (p *DiskProvider) Name() string { return "disk" }

func (p *DiskProvider) RefreshInterval() time.Duration { return p.interval }

func (p *DiskProvider) Refresh(ctx context.Context) (map[string]interface{}, error) {
	data, err := os.ReadFile(p.mountsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.mountsPath, err)
	}

	disks := make([]interface{}, 0)
	for _, mount := range parseMounts(string(data)) {
		total, available, err := p.statfs(mount.mountPoint)
		if err != nil || total == 0 {
			continue
		}

		used := total - available
		disks = append(disks, map[string]interface{}{
			"name":            mount.device,
			"file_system":     mount.fsType,
			"mount_point":     mount.mountPoint,
			"total_space":     total,
			"available_space": available,
			"used_space":      used,
			"usage":           round1(float64(used) / float64(total) * 100),
		})
	}

	return map[string]interface{}{"disks": disks}, nil
}

type mountEntry struct {
	device     string
	mountPoint string
	fsType     string
}

// parseMounts returns the block-device mounts from /proc/mounts content,
// skipping pseudo filesystems.
func parseMounts(content string) []mountEntry {
	var mounts []mountEntry
	seen := make(map[string]bool)

	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}

		device, mountPoint, fsType := fields[0], fields[1], fields[2]
		if !strings.HasPrefix(device, "/dev/") {
			continue
		}
		if seen[device] {
			continue
		}
		seen[device] = true

		mounts = append(mounts, mountEntry{
			device:     device,
			mountPoint: unescapeMountPath(mountPoint),
			fsType:     fsType,
		})
	}

	return mounts
}

// unescapeMountPath decodes the octal escapes /proc/mounts uses for spaces
// and other special characters in paths.
func unescapeMountPath(path string) string {
	if !strings.Contains(path, `\`) {
		return path
	}

	var b strings.Builder
	for i := 0; i < len(path); i++ {
		if path[i] == '\\' && i+3 < len(path) {
			b.WriteByte((path[i+1]-'0')<<6 | (path[i+2]-'0')<<3 | (path[i+3] - '0'))
			i += 3
			continue
		}
		b.WriteByte(path[i])
	}
	return b.String()
}

func statfsSpace(path string) (total, available uint64, err error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	blockSize := uint64(stat.Bsize)
	return stat.Blocks * blockSize, stat.Bavail * blockSize, nil
}

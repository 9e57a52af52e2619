// Package device lists locally attached storage devices so a front
// end can offer them as carve sources without the user having to know
// a raw path up front.
package device

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// Device describes one locally attached storage device or partition.
type Device struct {
	Path       string
	Name       string
	Size       int64
	SizeHuman  string
	Filesystem string
	Mountpoint string
	Removable  bool
}

// List returns the storage devices visible on the current platform by
// shelling out to the OS's native disk-listing tool.
func List() ([]Device, error) {
	switch runtime.GOOS {
	case "darwin":
		return listDarwin()
	case "linux":
		return listLinux()
	case "windows":
		return listWindows()
	default:
		return nil, fmt.Errorf("device: unsupported OS: %s", runtime.GOOS)
	}
}

func listDarwin() ([]Device, error) {
	cmd := exec.Command("diskutil", "list", "-plist")
	if _, err := cmd.Output(); err != nil {
		log.Debug("diskutil -plist unavailable, falling back to plain listing", "err", err)
	}
	return listDarwinSimple()
}

func listDarwinSimple() ([]Device, error) {
	cmd := exec.Command("diskutil", "list")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("device: run diskutil: %w", err)
	}

	var devices []Device
	scanner := bufio.NewScanner(bytes.NewReader(output))

	var currentDisk string
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "/dev/disk") {
			parts := strings.Fields(line)
			if len(parts) >= 1 {
				currentDisk = strings.TrimSuffix(parts[0], ":")
			}
			continue
		}

		line = strings.TrimSpace(line)
		if len(line) == 0 || !strings.Contains(line, ":") || strings.HasPrefix(line, "#:") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}

		deviceID := ""
		for _, p := range parts {
			if strings.HasPrefix(p, "disk") {
				deviceID = p
				break
			}
		}
		if deviceID == "" {
			continue
		}

		var sizeStr string
		var sizeBytes int64
		for i, p := range parts {
			if i+1 < len(parts) {
				unit := parts[i+1]
				if unit == "KB" || unit == "MB" || unit == "GB" || unit == "TB" || unit == "B" {
					sizeStr = p + " " + unit
					sizeBytes = parseSize(p, unit)
					break
				}
			}
		}

		fsType := ""
		if len(parts) >= 3 {
			fsType = parts[1]
		}

		name := ""
		for i := 2; i < len(parts)-2; i++ {
			if name != "" {
				name += " "
			}
			name += parts[i]
		}
		if name == "" {
			name = deviceID
		}

		devices = append(devices, Device{
			Path:       "/dev/" + deviceID,
			Name:       name,
			Size:       sizeBytes,
			SizeHuman:  sizeStr,
			Filesystem: fsType,
			Removable:  !strings.Contains(currentDisk, "internal"),
		})
	}

	return devices, nil
}

func listLinux() ([]Device, error) {
	cmd := exec.Command("lsblk", "-b", "-o", "NAME,SIZE,FSTYPE,MOUNTPOINT,RM", "-n", "-l")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("device: run lsblk: %w", err)
	}

	var devices []Device
	scanner := bufio.NewScanner(bytes.NewReader(output))

	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		name := parts[0]
		sizeBytes, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			log.Debug("lsblk reported a non-numeric size, skipping", "name", name, "raw", parts[1])
			continue
		}

		fsType := ""
		if len(parts) >= 3 {
			fsType = parts[2]
		}
		mountpoint := ""
		if len(parts) >= 4 {
			mountpoint = parts[3]
		}
		removable := len(parts) >= 5 && parts[4] == "1"

		devices = append(devices, Device{
			Path:       "/dev/" + name,
			Name:       name,
			Size:       sizeBytes,
			SizeHuman:  humanSize(sizeBytes),
			Filesystem: fsType,
			Mountpoint: mountpoint,
			Removable:  removable,
		})
	}

	return devices, nil
}

func listWindows() ([]Device, error) {
	cmd := exec.Command("powershell", "-Command",
		"Get-Disk | Select-Object Number,FriendlyName,Size,PartitionStyle | ConvertTo-Json")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("device: run Get-Disk: %w", err)
	}

	var devices []Device
	lines := strings.Split(string(output), "\n")
	for i, line := range lines {
		if !strings.Contains(line, "Number") {
			continue
		}
		fields := strings.SplitN(line, ":", 2)
		if len(fields) != 2 {
			continue
		}
		num, err := strconv.Atoi(strings.Trim(strings.TrimSpace(fields[1]), ","))
		if err != nil {
			log.Debug("Get-Disk output did not parse as expected, skipping entry", "line", line)
			continue
		}

		name := "Unknown"
		if i+1 < len(lines) && strings.Contains(lines[i+1], "FriendlyName") {
			nf := strings.SplitN(lines[i+1], ":", 2)
			if len(nf) == 2 {
				name = strings.Trim(strings.TrimSpace(nf[1]), `",`)
			}
		}

		devices = append(devices, Device{
			Path:      fmt.Sprintf(`\\.\PhysicalDrive%d`, num),
			Name:      name,
			SizeHuman: "Unknown",
		})
	}

	return devices, nil
}

func parseSize(value, unit string) int64 {
	v, _ := strconv.ParseFloat(value, 64)
	switch unit {
	case "B":
		return int64(v)
	case "KB":
		return int64(v * 1024)
	case "MB":
		return int64(v * 1024 * 1024)
	case "GB":
		return int64(v * 1024 * 1024 * 1024)
	case "TB":
		return int64(v * 1024 * 1024 * 1024 * 1024)
	}
	return 0
}

func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

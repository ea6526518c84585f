package gpu

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Device is one accelerator visible on the host
type Device struct {
	Index int
	Name  string
}

// Detect lists the GPUs on this host via `nvidia-smi -L`. It fails when
// nvidia-smi is missing or reports no devices; callers that received an
// explicit device list never need it.
func Detect() ([]Device, error) {
	out, err := exec.Command("nvidia-smi", "-L").Output()
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi not available: %w", err)
	}

	devices := parseList(string(out))
	if len(devices) == 0 {
		return nil, fmt.Errorf("nvidia-smi reported no GPUs")
	}
	return devices, nil
}

// parseList parses `nvidia-smi -L` output, one device per line:
//
//	GPU 0: NVIDIA A100-SXM4-40GB (UUID: GPU-xxxx)
func parseList(out string) []Device {
	var devices []Device
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "GPU ") {
			continue
		}
		rest := strings.TrimPrefix(line, "GPU ")
		idx, name, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			continue
		}
		if uuid := strings.Index(name, "(UUID:"); uuid >= 0 {
			name = name[:uuid]
		}
		devices = append(devices, Device{Index: index, Name: strings.TrimSpace(name)})
	}
	return devices
}

// ParseIDList parses a comma-separated device id list such as "0,1,2,3"
func ParseIDList(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid GPU id %q: %w", part, err)
		}
		if id < 0 {
			return nil, fmt.Errorf("invalid GPU id %d: must be >= 0", id)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no GPU ids in %q", s)
	}
	return ids, nil
}

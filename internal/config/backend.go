package config

import (
	"fmt"
	"strings"
)

const (
	BackendCPU    = "cpu"
	BackendWebGPU = "webgpu"
)

func NormalizeBackend(raw string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(raw))
	if backend == "" {
		backend = BackendCPU
	}
	switch backend {
	case BackendCPU, BackendWebGPU:
		return backend, nil
	case "host":
		return BackendCPU, nil
	case "gpu", "wgpu":
		return BackendWebGPU, nil
	default:
		return "", fmt.Errorf("invalid backend %q (expected %s|%s)", raw, BackendCPU, BackendWebGPU)
	}
}

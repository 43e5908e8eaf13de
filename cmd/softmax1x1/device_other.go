//go:build !windows

package main

import "errors"

func openWebGPU(int) (device, error) {
	return nil, errors.New("webgpu backend is only built for windows")
}

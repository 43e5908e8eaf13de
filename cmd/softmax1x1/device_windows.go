//go:build windows

package main

import (
	"log/slog"

	"github.com/born-ml/kernels/internal/backend/webgpu"
	"github.com/born-ml/kernels/internal/tensor"
)

func openWebGPU(maxBatch int) (device, error) {
	b, err := webgpu.New(webgpu.WithLogger(slog.Default()), webgpu.WithMaxBatchSize(maxBatch))
	if err != nil {
		return nil, err
	}
	return webgpuDevice{b}, nil
}

type webgpuDevice struct {
	*webgpu.Backend
}

func (d webgpuDevice) NewTensor(shape tensor.BHWC, desc tensor.Descriptor) (deviceTensor, error) {
	return d.Backend.NewTensor(shape, desc)
}

func (d webgpuDevice) Close() {
	d.Release()
}

package main

import (
	"github.com/born-ml/kernels/internal/backend/cpu"
	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/config"
	"github.com/born-ml/kernels/internal/tensor"
)

// deviceTensor is a tensor the CLI can fill and read back.
type deviceTensor interface {
	compute.Tensor
	Upload(values []float32) error
	Download() ([]float32, error)
}

// device is a compiler and queue that can allocate tensors.
type device interface {
	compute.Compiler
	compute.Queue
	Name() string
	NewTensor(shape tensor.BHWC, desc tensor.Descriptor) (deviceTensor, error)
	Close()
}

func openDevice(cfg config.Config) (device, error) {
	if cfg.Device.Backend == config.BackendWebGPU {
		return openWebGPU(cfg.Device.MaxBatch)
	}
	var opts []cpu.Option
	if cfg.Device.Workers > 0 {
		opts = append(opts, cpu.WithWorkers(cfg.Device.Workers))
	}
	return cpuDevice{cpu.New(opts...)}, nil
}

type cpuDevice struct {
	*cpu.CPUBackend
}

func (d cpuDevice) NewTensor(shape tensor.BHWC, desc tensor.Descriptor) (deviceTensor, error) {
	t, err := cpu.NewTensor(shape, desc)
	if err != nil {
		return nil, err
	}
	return cpuTensor{t}, nil
}

func (cpuDevice) Close() {}

type cpuTensor struct {
	*cpu.Tensor
}

func (t cpuTensor) Download() ([]float32, error) {
	return t.Tensor.Download(), nil
}

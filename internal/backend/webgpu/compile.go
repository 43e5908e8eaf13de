//go:build windows

package webgpu

import (
	"fmt"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/kernels/internal/compute"
)

// pipeline is the compiled form of a program on this device.
type pipeline struct {
	shader   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline
}

// Release frees the shader module and pipeline.
func (p *pipeline) Release() {
	p.pipeline.Release()
	p.shader.Release()
}

// Compile builds a compute pipeline with an automatic layout for p.
// Only buffer-backed tensors are supported.
func (b *Backend) Compile(p *compute.Program) (handle any, err error) {
	for _, arg := range p.Args {
		if arg.Kind.IsMemory() && arg.Desc.Storage.IsTexture() {
			return nil, fmt.Errorf("webgpu: argument %s: %s storage is not supported", arg.Name, arg.Desc.Storage)
		}
	}

	// Shader creation panics on invalid WGSL.
	defer func() {
		if r := recover(); r != nil {
			handle = nil
			err = fmt.Errorf("webgpu: %v", r)
		}
	}()

	shader := b.device.CreateShaderModuleWGSL(p.Source)
	if shader == nil {
		return nil, fmt.Errorf("webgpu: shader module for %q was not created", p.Entry)
	}
	pl := b.device.CreateComputePipelineSimple(nil, shader, p.Entry)
	if pl == nil {
		shader.Release()
		return nil, fmt.Errorf("webgpu: pipeline for %q was not created", p.Entry)
	}

	b.logger.Debug("webgpu pipeline created", "entry", p.Entry, "program", p.Hash()[:12])
	return &pipeline{shader: shader, pipeline: pl}, nil
}

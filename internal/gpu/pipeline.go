// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/stage"
)

// vertexStride is the byte stride per quad vertex:
// position float32x2 + texcoord float32x2 = 16 bytes.
const vertexStride = 16

// quadVertexCount is the number of vertices in the shared quad mesh
// (two triangles).
const quadVertexCount = 6

// spriteBlendState is the blend configuration required for correct
// sprite compositing: color is blended as straight alpha over the
// destination while alpha accumulates additively. Plain alpha blending
// on both components is not equivalent and must not be substituted.
func spriteBlendState() gputypes.BlendState {
	return gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

// pipeline is one compiled sprite render pipeline with its shader
// module, keyed in the cache by shader variant.
type pipeline struct {
	shader   hal.ShaderModule
	pipeline hal.RenderPipeline
}

// pipelineCache lazily creates and caches one render pipeline per
// shader variant. All pipelines share the bind group layout (uniforms +
// texture + sampler), the pipeline layout, and the quad vertex layout.
type pipelineCache struct {
	device hal.Device

	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout

	variants map[stage.ShaderVariant]*pipeline
}

// newPipelineCache creates the layouts shared by every sprite pipeline.
// Pipelines themselves are created on first use per variant.
func newPipelineCache(device hal.Device) (*pipelineCache, error) {
	pc := &pipelineCache{
		device:   device,
		variants: make(map[stage.ShaderVariant]*pipeline),
	}

	// Bind group layout:
	//   Binding 0: sprite uniforms (uniform buffer, vertex+fragment)
	//   Binding 1: sprite texture (texture_2d, fragment)
	//   Binding 2: sampler (fragment)
	uniformLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "stage_sprite_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create sprite uniform layout: %w", err)
	}
	pc.uniformLayout = uniformLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "stage_sprite_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{pc.uniformLayout},
	})
	if err != nil {
		device.DestroyBindGroupLayout(uniformLayout)
		return nil, fmt.Errorf("create sprite pipeline layout: %w", err)
	}
	pc.pipeLayout = pipeLayout

	return pc, nil
}

// get returns the pipeline for the given shader variant, compiling it
// on first use.
func (pc *pipelineCache) get(variant stage.ShaderVariant) (*pipeline, error) {
	if p, ok := pc.variants[variant]; ok {
		return p, nil
	}
	p, err := pc.create(variant)
	if err != nil {
		return nil, err
	}
	pc.variants[variant] = p
	stage.Logger().Debug("stage/gpu: pipeline compiled", "variant", variant.String())
	return p, nil
}

// create compiles the variant's WGSL to SPIR-V and builds the render
// pipeline with the sprite blend state.
func (pc *pipelineCache) create(variant stage.ShaderVariant) (*pipeline, error) {
	spirv, err := compileShader(shaderSource(variant))
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", variant, err)
	}

	shader, err := pc.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "stage_" + variant.String(),
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s shader module: %w", variant, err)
	}

	blend := spriteBlendState()
	rp, err := pc.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "stage_" + variant.String() + "_pipeline",
		Layout: pc.pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    quadVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    targetFormat,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		pc.device.DestroyShaderModule(shader)
		return nil, fmt.Errorf("create %s pipeline: %w", variant, err)
	}

	return &pipeline{shader: shader, pipeline: rp}, nil
}

// destroy releases every cached pipeline and the shared layouts.
func (pc *pipelineCache) destroy() {
	for _, p := range pc.variants {
		if p.pipeline != nil {
			pc.device.DestroyRenderPipeline(p.pipeline)
		}
		if p.shader != nil {
			pc.device.DestroyShaderModule(p.shader)
		}
	}
	pc.variants = nil
	if pc.pipeLayout != nil {
		pc.device.DestroyPipelineLayout(pc.pipeLayout)
		pc.pipeLayout = nil
	}
	if pc.uniformLayout != nil {
		pc.device.DestroyBindGroupLayout(pc.uniformLayout)
		pc.uniformLayout = nil
	}
}

// quadVertexLayout returns the shared vertex buffer layout: position
// float32x2 at location(0), texcoord float32x2 at location(1).
func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{
					Format:         gputypes.VertexFormatFloat32x2,
					Offset:         0,
					ShaderLocation: 0,
				},
				{
					Format:         gputypes.VertexFormatFloat32x2,
					Offset:         8,
					ShaderLocation: 1,
				},
			},
		},
	}
}

// quadVertexData returns the shared unit quad mesh: two triangles
// covering -0.5..0.5 in stage-local space, texcoords with v flipped so
// image row 0 lands at the sprite top.
func quadVertexData() []byte {
	verts := []float32{
		// x, y, u, v
		-0.5, -0.5, 0, 1,
		0.5, -0.5, 1, 1,
		0.5, 0.5, 1, 0,

		-0.5, -0.5, 0, 1,
		0.5, 0.5, 1, 0,
		-0.5, 0.5, 0, 0,
	}
	return float32Bytes(verts)
}

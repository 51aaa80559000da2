// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/stage"
)

// uniformSize is the byte size of the sprite uniform block:
// projection mat4x4 + model mat4x4 + two effect vec4s.
const uniformSize = 64 + 64 + 16 + 16

// drawResources holds the per-draw GPU objects released when the frame
// completes.
type drawResources struct {
	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup
}

func (r *drawResources) destroy(device hal.Device) {
	if r.bindGroup != nil {
		device.DestroyBindGroup(r.bindGroup)
	}
	if r.uniformBuf != nil {
		device.DestroyBuffer(r.uniformBuf)
	}
}

// framePass records one frame of sprite draws. Errors from BindShader
// and Draw are sticky and reported from End; once an error occurs the
// remaining calls are no-ops.
type framePass struct {
	d       *Device
	encoder hal.CommandEncoder
	rp      hal.RenderPassEncoder

	width  uint32
	height uint32

	resources []drawResources
	bound     bool
	err       error
}

// BeginFrame starts a frame targeting the host surface view if one is
// set, otherwise the offscreen target sized to cfg.
func (d *Device) BeginFrame(cfg stage.FrameConfig) (stage.FramePass, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("stage/gpu: invalid frame size %dx%d", cfg.Width, cfg.Height)
	}
	w := uint32(cfg.Width)
	h := uint32(cfg.Height)

	view := d.surfaceView
	if view == nil {
		if err := d.ensureTarget(w, h); err != nil {
			return nil, err
		}
		view = d.targetView
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "stage_frame_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("stage_frame"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "stage_frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  gputypes.LoadOpClear,
			StoreOp: gputypes.StoreOpStore,
			ClearValue: gputypes.Color{
				R: float64(cfg.ClearColor[0]),
				G: float64(cfg.ClearColor[1]),
				B: float64(cfg.ClearColor[2]),
				A: float64(cfg.ClearColor[3]),
			},
		}},
	})

	return &framePass{d: d, encoder: encoder, rp: rp, width: w, height: h}, nil
}

// BindShader switches the pass to the pipeline for the given shader
// variant and rebinds the shared quad mesh. The caller is expected to
// skip the call when the variant matches the one already bound.
func (p *framePass) BindShader(variant stage.ShaderVariant) {
	if p.err != nil {
		return
	}
	pl, err := p.d.pipelines.get(variant)
	if err != nil {
		p.err = err
		return
	}
	p.rp.SetPipeline(pl.pipeline)
	p.rp.SetVertexBuffer(0, p.d.quadBuf, 0)
	p.bound = true
}

// Draw renders one sprite quad with the given uniforms. A nil uniform
// texture falls back to the device's 1x1 white texture.
func (p *framePass) Draw(u *stage.Uniforms) {
	if p.err != nil {
		return
	}
	if !p.bound {
		p.err = fmt.Errorf("stage/gpu: draw without a bound shader")
		return
	}

	tex := p.d.whiteTex
	if u.Texture != nil {
		t, ok := u.Texture.(*Texture)
		if !ok {
			p.err = fmt.Errorf("stage/gpu: foreign texture type %T", u.Texture)
			return
		}
		if t.view != nil {
			tex = t
		}
	}

	uniformBuf, err := p.d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "stage_sprite_uniforms",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		p.err = fmt.Errorf("create uniform buffer: %w", err)
		return
	}
	p.d.queue.WriteBuffer(uniformBuf, 0, packUniforms(u))

	bindGroup, err := p.d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "stage_sprite_bind",
		Layout: p.d.pipelines.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: tex.view.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: p.d.sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		p.d.device.DestroyBuffer(uniformBuf)
		p.err = fmt.Errorf("create sprite bind group: %w", err)
		return
	}
	p.resources = append(p.resources, drawResources{uniformBuf: uniformBuf, bindGroup: bindGroup})

	p.rp.SetBindGroup(0, bindGroup, nil)
	p.rp.Draw(quadVertexCount, 1, 0, 0)
}

// End finishes the pass, submits the frame, and waits for the GPU.
// Per-draw resources are released before returning. Any error recorded
// during the pass is returned instead of submitting.
func (p *framePass) End() error {
	defer func() {
		for i := range p.resources {
			p.resources[i].destroy(p.d.device)
		}
		p.resources = nil
	}()

	p.rp.End()
	if p.err != nil {
		p.encoder.DiscardEncoding()
		return p.err
	}

	cmdBuf, err := p.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer p.d.device.FreeCommandBuffer(cmdBuf)

	fence, err := p.d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer p.d.device.DestroyFence(fence)

	if err := p.d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit frame: %w", err)
	}
	fenceOK, err := p.d.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// ReadPixels copies the offscreen frame target back to the CPU. Only
// valid after a completed offscreen frame; rendering to a host surface
// leaves no target to read.
func (d *Device) ReadPixels() (*image.RGBA, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if d.targetTex == nil {
		return nil, fmt.Errorf("stage/gpu: no offscreen frame to read")
	}
	w := d.targetW
	h := d.targetH

	// Copy pitch must be aligned to 256 bytes for buffer readback.
	bytesPerRow := w * 4
	const copyPitchAlignment = 256
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	stagingBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "stage_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(stagingBuf)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "stage_readback_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("stage_readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	// The render pass leaves the target in attachment layout; the copy
	// needs transfer-source. Transition, copy, transition back so the
	// next frame's pass starts from the expected layout.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: d.targetTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(d.targetTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: d.targetTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: d.targetTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit readback: %w", err)
	}
	fenceOK, err := d.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, stagingSize)
	if err := d.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for row := uint32(0); row < h; row++ {
		src := readback[row*alignedBytesPerRow:]
		dst := img.Pix[int(row)*img.Stride:]
		copy(dst[:bytesPerRow], src[:bytesPerRow])
	}
	return img, nil
}

// packUniforms serializes a sprite uniform block: projection and model
// matrices column-major, then the seven effect values split across two
// vec4s in enum order.
func packUniforms(u *stage.Uniforms) []byte {
	buf := make([]byte, uniformSize)
	off := 0
	for _, m := range [2]stage.Mat4{u.Projection, u.Model} {
		for _, f := range m {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(f))
			off += 4
		}
	}
	for _, f := range u.Effects {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(f))
		off += 4
	}
	return buf
}

// float32Bytes serializes a float32 slice little-endian.
func float32Bytes(vals []float32) []byte {
	buf := make([]byte, len(vals)*4)
	for i, f := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(f))
	}
	return buf
}

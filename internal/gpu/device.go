// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/stage"
)

// Device errors.
var (
	// ErrNoGPU is returned when no usable GPU backend or adapter exists.
	ErrNoGPU = errors.New("stage/gpu: no GPU available")

	// ErrClosed is returned when operations are called on a closed device.
	ErrClosed = errors.New("stage/gpu: device is closed")
)

// targetFormat is the color format of offscreen frame targets and
// sprite textures.
const targetFormat = gputypes.TextureFormatRGBA8Unorm

// Device is the wgpu-backed implementation of stage.Device.
//
// Not safe for concurrent use; the stage renderer is single-threaded
// and the device follows the same contract.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// externalDevice is true when the hal device came from a host
	// provider; shared resources are not destroyed on Close.
	externalDevice bool

	pipelines *pipelineCache

	quadBuf  hal.Buffer
	sampler  hal.Sampler
	whiteTex *Texture

	// Offscreen frame target, recreated on size change. Unused when a
	// surface target is set.
	targetTex  hal.Texture
	targetView hal.TextureView
	targetW    uint32
	targetH    uint32

	// Host-provided surface target. The caller retains ownership.
	surfaceView hal.TextureView

	closed bool
}

// New creates a device on the best available GPU adapter.
func New() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not registered", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapters found", ErrNoGPU)
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	d := &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
	}
	if err := d.createSharedResources(); err != nil {
		d.Close()
		return nil, err
	}

	stage.Logger().Info("stage/gpu: device initialized", "adapter", selected.Info.Name)
	return d, nil
}

// NewFromHal creates a device on a host-shared hal device and queue.
// Shared resources are not destroyed on Close.
func NewFromHal(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil hal device or queue", ErrNoGPU)
	}
	d := &Device{
		device:         device,
		queue:          queue,
		externalDevice: true,
	}
	if err := d.createSharedResources(); err != nil {
		d.Close()
		return nil, err
	}
	stage.Logger().Info("stage/gpu: device initialized on shared hal device")
	return d, nil
}

// createSharedResources builds the resources shared by every frame:
// the pipeline cache scaffolding, the unit-quad vertex buffer, the
// sprite sampler, and the fallback 1x1 white texture used by drawables
// with no texture assigned.
func (d *Device) createSharedResources() error {
	pc, err := newPipelineCache(d.device)
	if err != nil {
		return fmt.Errorf("pipeline cache: %w", err)
	}
	d.pipelines = pc

	quadBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "stage_quad",
		Size:  uint64(len(quadVertexData())),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create quad buffer: %w", err)
	}
	d.quadBuf = quadBuf
	d.queue.WriteBuffer(quadBuf, 0, quadVertexData())

	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "stage_sprite_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}
	d.sampler = sampler

	white, err := d.createTextureRGBA([]byte{0xFF, 0xFF, 0xFF, 0xFF}, 1, 1)
	if err != nil {
		return fmt.Errorf("create white texture: %w", err)
	}
	d.whiteTex = white

	return nil
}

// SetSurfaceTarget configures the device to render into the given
// texture view instead of its offscreen target. Pass nil to return to
// offscreen rendering. The caller retains ownership of the view.
func (d *Device) SetSurfaceTarget(view hal.TextureView) {
	d.surfaceView = view
}

// ensureTarget creates or recreates the offscreen color target if the
// requested dimensions differ from the current size.
func (d *Device) ensureTarget(w, h uint32) error {
	if d.targetTex != nil && d.targetW == w && d.targetH == h {
		return nil
	}
	d.destroyTarget()

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "stage_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create frame target: %w", err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "stage_target_view",
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return fmt.Errorf("create frame target view: %w", err)
	}

	d.targetTex = tex
	d.targetView = view
	d.targetW = w
	d.targetH = h
	return nil
}

func (d *Device) destroyTarget() {
	if d.targetView != nil {
		d.device.DestroyTextureView(d.targetView)
		d.targetView = nil
	}
	if d.targetTex != nil {
		d.device.DestroyTexture(d.targetTex)
		d.targetTex = nil
	}
	d.targetW = 0
	d.targetH = 0
}

// Close releases all device resources. Safe to call more than once.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	d.destroyTarget()
	if d.whiteTex != nil {
		d.whiteTex.Destroy()
		d.whiteTex = nil
	}
	if d.sampler != nil {
		d.device.DestroySampler(d.sampler)
		d.sampler = nil
	}
	if d.quadBuf != nil {
		d.device.DestroyBuffer(d.quadBuf)
		d.quadBuf = nil
	}
	if d.pipelines != nil {
		d.pipelines.destroy()
		d.pipelines = nil
	}

	if !d.externalDevice {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
	d.surfaceView = nil

	return nil
}

var _ stage.Device = (*Device)(nil)

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpu provides the wgpu-backed device for the stage renderer.
//
// NewDevice creates a device on the best available GPU adapter and
// renders offscreen; combine with stage.NewRenderer:
//
//	dev, err := gpu.NewDevice()
//	if err != nil {
//		// no GPU available
//	}
//	r, err := stage.NewRenderer(dev)
//
// Hosts that already own a GPU device (e.g. a gogpu window) can share
// it instead of creating a second instance:
//
//	dev, err := gpu.NewDeviceFromProvider(window.Provider())
package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/stage"
	gpuimpl "github.com/gogpu/stage/internal/gpu"
)

// NewDevice creates a stage device with its own GPU instance, selecting
// the best available adapter. The device renders into an offscreen
// target readable with ReadPixels until a surface target is set.
func NewDevice() (stage.Device, error) {
	return gpuimpl.New()
}

// NewDeviceFromProvider creates a stage device on a GPU device shared
// by a host provider. The provider must expose its HAL types via
// HalDevice() any and HalQueue() any, as gogpu providers do. The shared
// device is not destroyed when the stage device is closed.
func NewDeviceFromProvider(provider gpucontext.DeviceProvider) (stage.Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("stage/gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("stage/gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("stage/gpu: provider HalQueue is not hal.Queue")
	}
	return gpuimpl.NewFromHal(device, queue)
}

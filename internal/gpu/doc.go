// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpu implements the stage.Device boundary on top of the
// gogpu/wgpu HAL.
//
// The device owns one Vulkan (or host-shared) hal.Device and hal.Queue,
// a shared unit-quad vertex buffer, a sampler, and a cache of render
// pipelines keyed by shader variant. Each pipeline carries the sprite
// blend configuration: color blended as straight alpha over the
// destination, alpha accumulated additively.
//
// Sprite shaders are generated per variant from a WGSL template and
// compiled to SPIR-V with gogpu/naga before module creation.
//
// Frames render either to an internal offscreen texture (readable with
// ReadPixels) or directly to a host-provided surface texture view set
// with SetSurfaceTarget.
package gpu

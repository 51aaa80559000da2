// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/stage"
)

// Texture is a GPU sprite texture. Destroy releases the GPU objects
// and is safe to call more than once.
type Texture struct {
	device hal.Device
	tex    hal.Texture
	view   hal.TextureView
	width  int
	height int
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Destroy releases the texture's GPU objects. Idempotent.
func (t *Texture) Destroy() {
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		t.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

var _ stage.Texture = (*Texture)(nil)

// CreateTexture uploads an image as a sprite texture. Non-RGBA images
// are converted before upload.
func (d *Device) CreateTexture(img image.Image) (stage.Texture, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if img == nil {
		return nil, fmt.Errorf("stage/gpu: nil image")
	}
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("stage/gpu: empty image %dx%d", w, h)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != w*4 {
		converted := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.Draw(converted, converted.Bounds(), img, bounds.Min, xdraw.Src)
		rgba = converted
	}

	return d.createTextureRGBA(rgba.Pix, uint32(w), uint32(h))
}

// createTextureRGBA creates a texture from tightly packed RGBA pixels.
func (d *Device) createTextureRGBA(data []byte, w, h uint32) (*Texture, error) {
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "stage_sprite_texture",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create sprite texture: %w", err)
	}

	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "stage_sprite_texture_view",
		Format:        targetFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create sprite texture view: %w", err)
	}

	d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  w * 4,
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)

	return &Texture{
		device: d.device,
		tex:    tex,
		view:   view,
		width:  int(w),
		height: int(h),
	}, nil
}

package stage

import "image"

// Texture is a GPU texture owned by a drawable.
//
// Textures are created through Device.CreateTexture and released with
// Destroy. A drawable destroys its texture when it is disposed or when
// a new texture replaces it.
type Texture interface {
	// Width returns the texture width in pixels.
	Width() int

	// Height returns the texture height in pixels.
	Height() int

	// Destroy releases the GPU resources. Safe to call more than once.
	Destroy()
}

// FrameConfig describes one frame: the viewport in backing-store pixels
// and the clear color (components in 0..1, straight alpha).
type FrameConfig struct {
	Width      int
	Height     int
	ClearColor [4]float32
}

// FramePass records the draw calls of a single frame.
//
// The renderer drives it strictly in this order: zero or more
// BindShader/Draw sequences, then exactly one End. BindShader is only
// called when the shader variant changes between consecutive drawables;
// implementations may treat each call as a full pipeline rebind.
//
// Implementations accumulate errors internally and report them from
// End, so the per-drawable hot path stays call-and-forget.
type FramePass interface {
	// BindShader makes the given shader variant current for subsequent
	// Draw calls.
	BindShader(variant ShaderVariant)

	// Draw issues one quad draw with the given uniform set under the
	// currently bound shader.
	Draw(uniforms *Uniforms)

	// End submits the frame to the GPU and releases per-frame resources.
	End() error
}

// Device is the boundary between the renderer core and the GPU.
//
// The production implementation lives in internal/gpu and is obtained
// through the gpu package; tests substitute a recording fake.
//
// Device is not safe for concurrent use: the host must not interleave
// frame production and resource creation from multiple goroutines.
type Device interface {
	// BeginFrame starts a frame: configures the viewport, clears with
	// the background color, and returns the pass to record into.
	BeginFrame(cfg FrameConfig) (FramePass, error)

	// CreateTexture uploads an image as a GPU texture.
	CreateTexture(img image.Image) (Texture, error)

	// Close releases all device resources.
	Close() error
}

// Package stage renders a 2D scene of textured, transformable sprites
// onto a GPU surface.
//
// # Overview
//
// stage owns a set of drawables (sprites with position, rotation, scale,
// and visual effects), a logical stage coordinate space mapped to device
// pixels through an orthographic projection, and a per-frame draw loop
// that composites all drawables back-to-front with minimal GPU state
// changes. Rendering goes through the gogpu/wgpu WebGPU stack.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/stage"
//	    "github.com/gogpu/stage/gpu"
//	)
//
//	device, err := gpu.NewDevice()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r, err := stage.NewRenderer(device)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	id := r.CreateDrawable()
//	r.UpdateDrawableProperties(id, stage.Properties{
//	    Position: &stage.Vec2{X: 10, Y: 20},
//	})
//	r.Draw()
//
// # Coordinate Space
//
// Drawable positions are expressed in stage units inside a logical
// rectangle (default -240..240 horizontally, -180..180 vertically,
// y up). The renderer derives the orthographic projection from these
// bounds and converts logical pixel sizes to backing-store pixels using
// the configured pixel ratio.
//
// # Paint Order
//
// Visual stacking order is exactly draw-list order: drawables paint in
// the order they were created, newest on top. There is no z coordinate;
// list order is the only ordering channel.
//
// # Architecture
//
//   - Public API: Renderer, Drawable, Registry, CoordinateSpace, Mat4
//   - Device boundary: Device, FramePass, Texture interfaces
//   - internal/gpu: wgpu/hal backend (pipelines, buffers, textures)
//   - gpu: backend constructors for standalone and host-shared devices
package stage

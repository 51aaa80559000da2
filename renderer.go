package stage

import (
	"errors"
	"math"
)

// ErrNilDevice is returned when a Renderer is constructed without a
// drawing device. This is fatal: the renderer cannot degrade to a
// deviceless mode.
var ErrNilDevice = errors.New("stage: device is nil")

// Renderer owns the drawable registry, the coordinate space, the
// ordered draw list, and the surface configuration, and produces one
// composited frame per Draw call.
//
// Renderer is single-threaded by design: create, update, destroy, and
// Draw must all run on the same goroutine, cooperating with the host's
// frame-presentation cycle. No operation blocks.
type Renderer struct {
	device   Device
	registry *Registry
	coord    *CoordinateSpace

	// drawList is the paint order, back to front: first-inserted draws
	// first. It holds ids only; drawables are resolved through the
	// registry every frame.
	drawList []DrawableID

	background [4]float32

	// Backing-store dimensions in device pixels.
	widthPx, heightPx int

	pixelRatio float64

	// debugOverrides are effect values merged over every drawable's
	// uniforms at draw time. Explicit construction-time configuration,
	// never read from ambient state.
	debugOverrides map[string]float32

	events Notifier
}

// NewRenderer creates a renderer drawing to the given device.
//
// Defaults: stage bounds -240..240 x -180..180, pixel ratio 1, opaque
// black background, and surface dimensions derived from the absolute
// difference of the stage bounds. A nil device fails construction with
// ErrNilDevice.
func NewRenderer(device Device, opts ...Option) (*Renderer, error) {
	if device == nil {
		return nil, ErrNilDevice
	}

	o := defaultRendererOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer{
		device:         device,
		registry:       NewRegistry(),
		coord:          NewCoordinateSpace(o.left, o.right, o.bottom, o.top),
		background:     o.background,
		pixelRatio:     o.pixelRatio,
		debugOverrides: o.debugOverrides,
	}

	// Bounds changes invalidate every drawable's cached transform state
	// in one broadcast; no caller-side iteration.
	r.coord.SetChangeListener(r.registry.MarkAllDirty)

	width, height := o.widthPx, o.heightPx
	if width == 0 {
		width = int(r.coord.Width())
	}
	if height == 0 {
		height = int(r.coord.Height())
	}
	r.setSurfaceSize(width, height)

	Logger().Debug("stage: renderer created",
		"width", r.widthPx, "height", r.heightPx, "pixelRatio", r.pixelRatio)

	return r, nil
}

// Registry returns the renderer's drawable registry.
func (r *Renderer) Registry() *Registry {
	return r.registry
}

// Events returns the renderer's event notifier.
func (r *Renderer) Events() *Notifier {
	return &r.events
}

// SetStageBounds changes the logical stage rectangle. The projection is
// recomputed immediately and every existing drawable's cached transform
// state is invalidated.
func (r *Renderer) SetStageBounds(left, right, bottom, top float32) {
	r.coord.SetBounds(left, right, bottom, top)
	r.events.Publish(Event{Kind: EventStageBoundsChanged})
}

// Resize sets the surface size in logical pixels. The backing-store
// dimensions are the logical dimensions multiplied by the pixel ratio.
func (r *Renderer) Resize(width, height int) {
	r.setSurfaceSize(width, height)
	r.events.Publish(Event{Kind: EventSurfaceResized})
}

func (r *Renderer) setSurfaceSize(width, height int) {
	r.widthPx = int(math.Round(float64(width) * r.pixelRatio))
	r.heightPx = int(math.Round(float64(height) * r.pixelRatio))
}

// SurfaceSize returns the backing-store dimensions in device pixels.
func (r *Renderer) SurfaceSize() (width, height int) {
	return r.widthPx, r.heightPx
}

// SetBackgroundColor sets the clear color. Components are clamped
// to [0, 1].
func (r *Renderer) SetBackgroundColor(red, green, blue, alpha float32) {
	r.background = clampColor(red, green, blue, alpha)
}

// ProjectionMatrix returns the current stage-to-clip projection.
func (r *Renderer) ProjectionMatrix() Mat4 {
	return r.coord.Projection()
}

// StageBounds returns the current logical stage rectangle.
func (r *Renderer) StageBounds() (left, right, bottom, top float32) {
	return r.coord.Bounds()
}

// CreateDrawable allocates a new drawable with the default transform
// and appends its id to the end of the draw list, so new drawables
// paint on top of everything existing.
func (r *Renderer) CreateDrawable() DrawableID {
	d := r.registry.Create()
	r.drawList = append(r.drawList, d.ID())
	r.events.Publish(Event{Kind: EventDrawableCreated, Drawable: d.ID()})
	return d.ID()
}

// DestroyDrawable disposes the drawable's GPU resources and removes its
// id from the draw list. Returns whether removal occurred; destroying
// an unknown or already-destroyed id is a safe no-op reporting false.
//
// Disposal happens before structural removal so no frame can observe a
// disposed-but-still-listed or listed-but-unregistered id.
func (r *Renderer) DestroyDrawable(id DrawableID) bool {
	if !r.registry.Destroy(id) {
		return false
	}
	for i, listed := range r.drawList {
		if listed == id {
			r.drawList = append(r.drawList[:i], r.drawList[i+1:]...)
			break
		}
	}
	r.events.Publish(Event{Kind: EventDrawableDestroyed, Drawable: id})
	return true
}

// UpdateDrawableProperties forwards a partial property update to the
// drawable. Silently no-ops if the id is not present, tolerating stale
// ids from callers that already destroyed the drawable.
func (r *Renderer) UpdateDrawableProperties(id DrawableID, props Properties) {
	d, ok := r.registry.Get(id)
	if !ok {
		return
	}
	d.UpdateProperties(props)
}

// DrawList returns a copy of the current paint order.
func (r *Renderer) DrawList() []DrawableID {
	out := make([]DrawableID, len(r.drawList))
	copy(out, r.drawList)
	return out
}

// Draw produces one composited frame on the device.
//
// The draw list is walked strictly in list order (painter's algorithm:
// first-inserted draws furthest back). The shader is rebound only when
// the variant differs from the previous drawable's — an adjacency
// check, never a sort, because paint order outranks batching
// efficiency. Missing ids are skipped.
func (r *Renderer) Draw() error {
	pass, err := r.device.BeginFrame(FrameConfig{
		Width:      r.widthPx,
		Height:     r.heightPx,
		ClearColor: r.background,
	})
	if err != nil {
		return err
	}

	projection := r.coord.Projection()

	var current ShaderVariant
	bound := false
	for _, id := range r.drawList {
		d, ok := r.registry.Get(id)
		if !ok {
			continue
		}

		if variant := d.Shader(); !bound || variant != current {
			pass.BindShader(variant)
			current = variant
			bound = true
		}

		uniforms := d.Uniforms(projection)
		if len(r.debugOverrides) > 0 {
			overridden := *uniforms
			for name, v := range r.debugOverrides {
				if e, ok := EffectByName(name); ok {
					overridden.Effects[e] = v
				}
			}
			pass.Draw(&overridden)
			continue
		}
		pass.Draw(uniforms)
	}

	return pass.End()
}

// Close destroys all drawables and releases the device.
func (r *Renderer) Close() error {
	for _, id := range r.DrawList() {
		r.DestroyDrawable(id)
	}
	return r.device.Close()
}

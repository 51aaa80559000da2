package stage

// DrawableID is the stable handle for one drawable. Ids are assigned
// by the Registry, start at 0, increase monotonically, and are never
// reused within a process lifetime.
type DrawableID int

// Uniforms is the per-draw-call parameter set supplied to the active
// shader: the model and projection matrices, the effect values, and the
// texture binding. The renderer treats it as opaque and forwards it to
// the device.
type Uniforms struct {
	Model      Mat4
	Projection Mat4
	Effects    EffectValues
	Texture    Texture
}

// drawableState is the recompute state of a drawable's cached uniforms.
type drawableState uint8

const (
	// stateClean means the cached model matrix and uniform set match the
	// drawable's properties and the projection they were built against.
	stateClean drawableState = iota

	// stateDirty means a property or the stage bounds changed since the
	// last recompute. The only clean transition happens inside Uniforms.
	stateDirty
)

// Drawable is one renderable sprite: identity, transform, effect set,
// and the uniform cache the draw loop reads.
//
// Drawables are created and owned by a Registry; the renderer's draw
// list refers to them by id only.
type Drawable struct {
	id DrawableID

	position Vec2
	rotation float32 // radians, counterclockwise
	scale    Vec2

	effects EffectValues
	texture Texture

	state    drawableState
	uniforms Uniforms
	disposed bool
}

// newDrawable returns a drawable with the default transform: position
// at the origin, no rotation, unit scale, no active effects.
func newDrawable(id DrawableID) *Drawable {
	return &Drawable{
		id:    id,
		scale: Vec2{X: 1, Y: 1},
		state: stateDirty,
	}
}

// ID returns the drawable's unique identity.
func (d *Drawable) ID() DrawableID { return d.id }

// Position returns the drawable's position in stage units.
func (d *Drawable) Position() Vec2 { return d.position }

// Rotation returns the drawable's rotation in radians.
func (d *Drawable) Rotation() float32 { return d.rotation }

// Scale returns the drawable's per-axis scale factors.
func (d *Drawable) Scale() Vec2 { return d.scale }

// Shader returns the shader variant for the current active-effect
// combination. Deterministic and pure: it does not touch the dirty
// state, so the draw loop can batch by it before reading uniforms.
func (d *Drawable) Shader() ShaderVariant {
	return d.effects.Variant()
}

// Properties is a partial update for a drawable. Nil fields are left
// untouched; effect names that this version does not define are
// silently ignored.
type Properties struct {
	Position *Vec2
	Rotation *float32
	Scale    *Vec2

	// Effects maps effect property names (e.g. "ghost", "whirl") to
	// values. Setting a value to 0 deactivates the effect.
	Effects map[string]float32

	// Texture, if non-nil, replaces the drawable's texture. The previous
	// texture is destroyed; the drawable takes ownership of the new one.
	Texture Texture
}

// UpdateProperties merges the supplied fields into the drawable's state
// and marks it dirty. Recomputation is lazy: nothing is derived until
// the next Uniforms call.
func (d *Drawable) UpdateProperties(p Properties) {
	if p.Position != nil {
		d.position = *p.Position
	}
	if p.Rotation != nil {
		d.rotation = *p.Rotation
	}
	if p.Scale != nil {
		d.scale = *p.Scale
	}
	for name, value := range p.Effects {
		if e, ok := EffectByName(name); ok {
			d.effects[e] = value
		}
	}
	if p.Texture != nil {
		if d.texture != nil && d.texture != p.Texture {
			d.texture.Destroy()
		}
		d.texture = p.Texture
	}
	d.state = stateDirty
}

// MarkDirty flags the cached uniforms as stale. Called by the registry
// when the stage bounds change.
func (d *Drawable) MarkDirty() {
	d.state = stateDirty
}

// dirty reports whether the drawable needs a recompute.
func (d *Drawable) dirty() bool {
	return d.state == stateDirty
}

// Uniforms returns the drawable's uniform set, recomputing the model
// matrix and uniform values first if the drawable is dirty. This is the
// only clean transition: cost is paid once per dirty period, not once
// per frame.
//
// The returned pointer aliases the drawable's cache and is valid until
// the next UpdateProperties or MarkDirty.
func (d *Drawable) Uniforms(projection Mat4) *Uniforms {
	if d.state == stateDirty {
		d.uniforms = Uniforms{
			Model:      Compose(d.position.X, d.position.Y, d.rotation, d.scale.X, d.scale.Y),
			Projection: projection,
			Effects:    d.effects,
			Texture:    d.texture,
		}
		d.state = stateClean
	}
	return &d.uniforms
}

// Dispose releases the drawable's owned GPU resources. Calling it more
// than once is tolerated as a no-op.
func (d *Drawable) Dispose() {
	if d.disposed {
		return
	}
	d.disposed = true
	if d.texture != nil {
		d.texture.Destroy()
		d.texture = nil
	}
	d.uniforms.Texture = nil
}

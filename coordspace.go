package stage

// CoordinateSpace maintains the logical stage rectangle and the
// orthographic projection derived from it.
//
// The projection is recomputed eagerly on every bounds change, so
// Projection is always consistent with the current bounds. A change
// listener lets the owner broadcast staleness to cached per-drawable
// state without the CoordinateSpace knowing about drawables.
type CoordinateSpace struct {
	left, right float32
	bottom, top float32

	projection Mat4

	// generation increments on every bounds change. Cached state derived
	// from the projection is keyed on this value.
	generation uint64

	onChange func()
}

// NewCoordinateSpace creates a coordinate space with the given stage bounds.
func NewCoordinateSpace(left, right, bottom, top float32) *CoordinateSpace {
	c := &CoordinateSpace{}
	c.SetBounds(left, right, bottom, top)
	return c
}

// SetBounds stores the stage bounds and recomputes the projection.
// Malformed bounds (zero width or height) are accepted; the projection
// clamps them to a minimum extent rather than going singular.
//
// The change listener, if set, fires after the projection is updated.
func (c *CoordinateSpace) SetBounds(left, right, bottom, top float32) {
	c.left, c.right = left, right
	c.bottom, c.top = bottom, top
	c.projection = Ortho(left, right, bottom, top)
	c.generation++
	if c.onChange != nil {
		c.onChange()
	}
}

// Bounds returns the current stage bounds.
func (c *CoordinateSpace) Bounds() (left, right, bottom, top float32) {
	return c.left, c.right, c.bottom, c.top
}

// Projection returns the current projection matrix. Pure read.
func (c *CoordinateSpace) Projection() Mat4 {
	return c.projection
}

// Generation returns the bounds-change counter.
func (c *CoordinateSpace) Generation() uint64 {
	return c.generation
}

// SetChangeListener registers fn to run after every bounds change.
// At most one listener is held; passing nil removes it.
func (c *CoordinateSpace) SetChangeListener(fn func()) {
	c.onChange = fn
}

// Width returns the stage width in stage units.
func (c *CoordinateSpace) Width() float32 {
	return abs32(c.right - c.left)
}

// Height returns the stage height in stage units.
func (c *CoordinateSpace) Height() float32 {
	return abs32(c.top - c.bottom)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

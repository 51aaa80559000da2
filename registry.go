package stage

// Registry maps drawable ids to drawables. It is the sole source of
// truth for which ids exist: the renderer's draw list holds ids only
// and resolves them here every frame.
//
// A Registry is owned by its Renderer and passed by reference where
// lookup is needed; there is no process-wide registry. It is not safe
// for concurrent use, matching the renderer's single-threaded contract.
type Registry struct {
	drawables map[DrawableID]*Drawable
	nextID    DrawableID
}

// NewRegistry creates an empty registry. Ids start at 0.
func NewRegistry() *Registry {
	return &Registry{
		drawables: make(map[DrawableID]*Drawable),
	}
}

// Create allocates a drawable with a fresh unique id and the default
// transform, registers it, and returns it.
func (r *Registry) Create() *Drawable {
	d := newDrawable(r.nextID)
	r.drawables[d.id] = d
	r.nextID++
	return d
}

// Get returns the drawable for id. The second return is false if the
// id is absent; callers treat a miss as a no-op, not an error, since
// destroy racing with update is expected usage.
func (r *Registry) Get(id DrawableID) (*Drawable, bool) {
	d, ok := r.drawables[id]
	return d, ok
}

// Destroy disposes the drawable's GPU resources and removes it from
// the registry. Returns false if the id was not present; destroying
// twice is safe and the second call reports not-found.
func (r *Registry) Destroy(id DrawableID) bool {
	d, ok := r.drawables[id]
	if !ok {
		return false
	}
	d.Dispose()
	delete(r.drawables, id)
	return true
}

// MarkAllDirty flags every registered drawable's cached transform state
// as stale. Invoked when the stage bounds change.
func (r *Registry) MarkAllDirty() {
	for _, d := range r.drawables {
		d.MarkDirty()
	}
}

// Len returns the number of live drawables.
func (r *Registry) Len() int {
	return len(r.drawables)
}

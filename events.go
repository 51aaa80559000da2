package stage

// EventKind identifies a renderer lifecycle event.
type EventKind int

const (
	// EventStageBoundsChanged fires after SetStageBounds.
	EventStageBoundsChanged EventKind = iota

	// EventSurfaceResized fires after Resize.
	EventSurfaceResized

	// EventDrawableCreated fires after CreateDrawable.
	EventDrawableCreated

	// EventDrawableDestroyed fires after a successful DestroyDrawable.
	EventDrawableDestroyed
)

// String returns a debug name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventStageBoundsChanged:
		return "stage-bounds-changed"
	case EventSurfaceResized:
		return "surface-resized"
	case EventDrawableCreated:
		return "drawable-created"
	case EventDrawableDestroyed:
		return "drawable-destroyed"
	default:
		return "unknown"
	}
}

// Event is one renderer notification. Drawable is meaningful only for
// drawable events.
type Event struct {
	Kind     EventKind
	Drawable DrawableID
}

// Notifier is a subscribe/publish capability held by the Renderer.
// Handlers run synchronously on the publishing goroutine, in
// subscription order. Not safe for concurrent use, matching the
// renderer's single-threaded contract.
type Notifier struct {
	handlers []func(Event)
}

// Subscribe registers a handler and returns a cancel function that
// removes it. Cancel is idempotent.
func (n *Notifier) Subscribe(fn func(Event)) (cancel func()) {
	n.handlers = append(n.handlers, fn)
	idx := len(n.handlers) - 1
	return func() {
		if idx < len(n.handlers) {
			n.handlers[idx] = nil
		}
	}
}

// Publish delivers the event to all registered handlers.
func (n *Notifier) Publish(e Event) {
	for _, fn := range n.handlers {
		if fn != nil {
			fn(e)
		}
	}
}

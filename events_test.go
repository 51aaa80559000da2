package stage

import "testing"

func TestNotifier_PublishOrder(t *testing.T) {
	var n Notifier
	var got []int

	n.Subscribe(func(Event) { got = append(got, 1) })
	n.Subscribe(func(Event) { got = append(got, 2) })

	n.Publish(Event{Kind: EventSurfaceResized})
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("handler order = %v, want [1 2]", got)
	}
}

func TestNotifier_CancelIdempotent(t *testing.T) {
	var n Notifier
	fired := 0
	cancel := n.Subscribe(func(Event) { fired++ })

	cancel()
	cancel()
	n.Publish(Event{Kind: EventStageBoundsChanged})
	if fired != 0 {
		t.Errorf("cancelled handler fired %d times", fired)
	}
}

func TestNotifier_CancelLeavesOthers(t *testing.T) {
	var n Notifier
	var got []int

	cancelFirst := n.Subscribe(func(Event) { got = append(got, 1) })
	n.Subscribe(func(Event) { got = append(got, 2) })
	cancelFirst()

	n.Publish(Event{Kind: EventDrawableCreated})
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("handlers after cancel = %v, want [2]", got)
	}
}

func TestEventKind_String(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{EventStageBoundsChanged, "stage-bounds-changed"},
		{EventSurfaceResized, "surface-resized"},
		{EventDrawableCreated, "drawable-created"},
		{EventDrawableDestroyed, "drawable-destroyed"},
		{EventKind(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

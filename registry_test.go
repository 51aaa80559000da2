package stage

import "testing"

func TestRegistry_CreateAssignsMonotonicIDs(t *testing.T) {
	r := NewRegistry()

	for want := DrawableID(0); want < 5; want++ {
		d := r.Create()
		if d.ID() != want {
			t.Fatalf("Create() id = %v, want %v", d.ID(), want)
		}
	}
	if r.Len() != 5 {
		t.Errorf("Len() = %d, want 5", r.Len())
	}
}

func TestRegistry_IDsNotReused(t *testing.T) {
	r := NewRegistry()
	first := r.Create()
	r.Destroy(first.ID())

	second := r.Create()
	if second.ID() == first.ID() {
		t.Errorf("id %v reused after destroy", first.ID())
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	d := r.Create()

	got, ok := r.Get(d.ID())
	if !ok || got != d {
		t.Errorf("Get(%v) = %v, %v", d.ID(), got, ok)
	}
	if _, ok := r.Get(DrawableID(999)); ok {
		t.Error("Get of unknown id reported ok")
	}
}

func TestRegistry_Destroy(t *testing.T) {
	r := NewRegistry()
	d := r.Create()
	tex := &fakeTexture{w: 2, h: 2}
	d.UpdateProperties(Properties{Texture: tex})

	if !r.Destroy(d.ID()) {
		t.Fatal("Destroy of live id = false")
	}
	if tex.destroyed != 1 {
		t.Errorf("texture destroyed %d times, want 1", tex.destroyed)
	}
	if _, ok := r.Get(d.ID()); ok {
		t.Error("destroyed id still resolvable")
	}

	// Second destroy reports not-found.
	if r.Destroy(d.ID()) {
		t.Error("second Destroy = true, want false")
	}
}

func TestRegistry_MarkAllDirty(t *testing.T) {
	r := NewRegistry()
	proj := Identity()

	a := r.Create()
	b := r.Create()
	a.Uniforms(proj)
	b.Uniforms(proj)
	if a.dirty() || b.dirty() {
		t.Fatal("drawables dirty after Uniforms")
	}

	r.MarkAllDirty()
	if !a.dirty() || !b.dirty() {
		t.Error("MarkAllDirty left a drawable clean")
	}
}

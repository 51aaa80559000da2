package stage

import (
	"errors"
	"image"
	"math/rand"
	"testing"
)

// =============================================================================
// Test doubles
// =============================================================================

type fakeTexture struct {
	w, h      int
	destroyed int
}

func (t *fakeTexture) Width() int  { return t.w }
func (t *fakeTexture) Height() int { return t.h }
func (t *fakeTexture) Destroy()    { t.destroyed++ }

// recordedDraw is one Draw call as seen by the fake pass.
type recordedDraw struct {
	variant  ShaderVariant
	uniforms Uniforms
}

// fakePass records the call sequence of one frame.
type fakePass struct {
	binds  []ShaderVariant
	draws  []recordedDraw
	endErr error
	ended  bool

	current ShaderVariant
}

func (p *fakePass) BindShader(variant ShaderVariant) {
	p.binds = append(p.binds, variant)
	p.current = variant
}

func (p *fakePass) Draw(u *Uniforms) {
	p.draws = append(p.draws, recordedDraw{variant: p.current, uniforms: *u})
}

func (p *fakePass) End() error {
	p.ended = true
	return p.endErr
}

// fakeDevice hands out fake passes and records frame configs.
type fakeDevice struct {
	frames   []*fakePass
	configs  []FrameConfig
	beginErr error
	closed   bool
}

func (d *fakeDevice) BeginFrame(cfg FrameConfig) (FramePass, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	d.configs = append(d.configs, cfg)
	p := &fakePass{}
	d.frames = append(d.frames, p)
	return p, nil
}

func (d *fakeDevice) CreateTexture(img image.Image) (Texture, error) {
	b := img.Bounds()
	return &fakeTexture{w: b.Dx(), h: b.Dy()}, nil
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDevice) lastFrame(t *testing.T) *fakePass {
	t.Helper()
	if len(d.frames) == 0 {
		t.Fatal("no frame recorded")
	}
	return d.frames[len(d.frames)-1]
}

func newTestRenderer(t *testing.T, opts ...Option) (*Renderer, *fakeDevice) {
	t.Helper()
	dev := &fakeDevice{}
	r, err := NewRenderer(dev, opts...)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r, dev
}

// setEffect activates one effect so the drawable's shader variant
// becomes distinguishable in the recorded frame.
func setEffect(t *testing.T, r *Renderer, id DrawableID, name string, value float32) {
	t.Helper()
	r.UpdateDrawableProperties(id, Properties{Effects: map[string]float32{name: value}})
}

// =============================================================================
// Construction
// =============================================================================

func TestNewRenderer_NilDevice(t *testing.T) {
	if _, err := NewRenderer(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewRenderer(nil) err = %v, want ErrNilDevice", err)
	}
}

func TestNewRenderer_Defaults(t *testing.T) {
	r, _ := newTestRenderer(t)

	left, right, bottom, top := r.StageBounds()
	if left != DefaultStageLeft || right != DefaultStageRight ||
		bottom != DefaultStageBottom || top != DefaultStageTop {
		t.Errorf("default bounds = %v,%v,%v,%v", left, right, bottom, top)
	}

	w, h := r.SurfaceSize()
	if w != 480 || h != 360 {
		t.Errorf("default surface = %dx%d, want 480x360", w, h)
	}
}

func TestNewRenderer_SurfaceSizeAppliesPixelRatio(t *testing.T) {
	r, _ := newTestRenderer(t,
		WithSurfaceSize(480, 360),
		WithPixelRatio(2),
	)
	w, h := r.SurfaceSize()
	if w != 960 || h != 720 {
		t.Errorf("surface = %dx%d, want 960x720", w, h)
	}
}

// =============================================================================
// Drawable lifecycle
// =============================================================================

func TestRenderer_CreateDrawableIDs(t *testing.T) {
	r, _ := newTestRenderer(t)

	first := r.CreateDrawable()
	if first != 0 {
		t.Errorf("first id = %v, want 0", first)
	}
	second := r.CreateDrawable()
	if second == first {
		t.Error("duplicate drawable id")
	}
}

func TestRenderer_DestroyDrawable(t *testing.T) {
	r, _ := newTestRenderer(t)
	id := r.CreateDrawable()

	if !r.DestroyDrawable(id) {
		t.Fatal("DestroyDrawable(live) = false")
	}
	if r.DestroyDrawable(id) {
		t.Error("DestroyDrawable(destroyed) = true")
	}
	if r.DestroyDrawable(DrawableID(12345)) {
		t.Error("DestroyDrawable(unknown) = true")
	}
	if got := r.DrawList(); len(got) != 0 {
		t.Errorf("draw list = %v after destroy, want empty", got)
	}
}

func TestRenderer_UpdateStaleIDIsNoOp(t *testing.T) {
	r, _ := newTestRenderer(t)
	id := r.CreateDrawable()
	r.DestroyDrawable(id)

	// Must not panic or resurrect the drawable.
	pos := Vec2{X: 1, Y: 1}
	r.UpdateDrawableProperties(id, Properties{Position: &pos})
	if got := r.DrawList(); len(got) != 0 {
		t.Errorf("draw list = %v, want empty", got)
	}
}

func TestRenderer_PaintOrderIsCreationOrder(t *testing.T) {
	r, dev := newTestRenderer(t)
	a := r.CreateDrawable()
	b := r.CreateDrawable()
	c := r.CreateDrawable()

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	frame := dev.lastFrame(t)
	if len(frame.draws) != 3 {
		t.Fatalf("recorded %d draws, want 3", len(frame.draws))
	}
	if got := r.DrawList(); got[0] != a || got[1] != b || got[2] != c {
		t.Errorf("draw list = %v, want [%v %v %v]", got, a, b, c)
	}

	// Destroying the middle drawable preserves the relative order of
	// the rest.
	r.DestroyDrawable(b)
	if got := r.DrawList(); len(got) != 2 || got[0] != a || got[1] != c {
		t.Errorf("draw list = %v, want [%v %v]", got, a, c)
	}
}

// =============================================================================
// Draw loop
// =============================================================================

func TestRenderer_DrawBindsShaderOnAdjacencyChange(t *testing.T) {
	r, dev := newTestRenderer(t)

	// Variants in paint order: X, X, Y, X. Exactly three rebinds: the
	// first drawable, the X->Y transition, and the Y->X transition.
	a := r.CreateDrawable()
	b := r.CreateDrawable()
	c := r.CreateDrawable()
	d := r.CreateDrawable()
	setEffect(t, r, a, "ghost", 50)
	setEffect(t, r, b, "ghost", 25)
	setEffect(t, r, c, "whirl", 90)
	setEffect(t, r, d, "ghost", 75)

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	frame := dev.lastFrame(t)
	if len(frame.binds) != 3 {
		t.Errorf("recorded %d shader binds, want 3 (got %v)", len(frame.binds), frame.binds)
	}
	if len(frame.draws) != 4 {
		t.Errorf("recorded %d draws, want 4", len(frame.draws))
	}
	for i, d := range frame.draws {
		if d.variant != d.uniforms.Effects.Variant() {
			t.Errorf("draw %d ran under variant %v, want %v",
				i, d.variant, d.uniforms.Effects.Variant())
		}
	}
}

func TestRenderer_DrawSingleVariantBindsOnce(t *testing.T) {
	r, dev := newTestRenderer(t)
	for i := 0; i < 5; i++ {
		r.CreateDrawable()
	}

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if frame := dev.lastFrame(t); len(frame.binds) != 1 {
		t.Errorf("recorded %d binds for uniform variants, want 1", len(frame.binds))
	}
}

func TestRenderer_DrawUsesBackgroundAndSurface(t *testing.T) {
	r, dev := newTestRenderer(t, WithBackgroundColor(0.5, 0.25, 0.125, 1))
	r.Resize(100, 50)

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	cfg := dev.configs[len(dev.configs)-1]
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("frame size = %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
	if cfg.ClearColor != [4]float32{0.5, 0.25, 0.125, 1} {
		t.Errorf("clear color = %v", cfg.ClearColor)
	}
}

func TestRenderer_DrawPropagatesBeginFrameError(t *testing.T) {
	dev := &fakeDevice{}
	r, err := NewRenderer(dev)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	wantErr := errors.New("device lost")
	dev.beginErr = wantErr

	if err := r.Draw(); !errors.Is(err, wantErr) {
		t.Errorf("Draw err = %v, want %v", err, wantErr)
	}
}

func TestRenderer_StageBoundsChangePropagatesToUniforms(t *testing.T) {
	r, dev := newTestRenderer(t)
	r.CreateDrawable()

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	before := dev.lastFrame(t).draws[0].uniforms.Projection

	r.SetStageBounds(-320, 320, -240, 240)
	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	after := dev.lastFrame(t).draws[0].uniforms.Projection

	if before == after {
		t.Error("projection in uniforms unchanged after SetStageBounds")
	}
	if after != r.ProjectionMatrix() {
		t.Error("uniforms carry stale projection")
	}
}

func TestRenderer_DebugOverridesApplied(t *testing.T) {
	r, dev := newTestRenderer(t, WithDebugUniformOverrides(map[string]float32{
		"ghost":   80,
		"sparkle": 1, // unknown, ignored
	}))
	id := r.CreateDrawable()
	setEffect(t, r, id, "ghost", 10)

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	got := dev.lastFrame(t).draws[0].uniforms.Effects[EffectGhost]
	if got != 80 {
		t.Errorf("ghost value = %v, want override 80", got)
	}

	// The drawable's own state is untouched by the override.
	d, _ := r.Registry().Get(id)
	if d.effects[EffectGhost] != 10 {
		t.Errorf("drawable ghost = %v, want 10", d.effects[EffectGhost])
	}
}

func TestRenderer_RandomizedLifecycleInvariants(t *testing.T) {
	r, _ := newTestRenderer(t)
	rng := rand.New(rand.NewSource(1))

	live := make(map[DrawableID]bool)
	var order []DrawableID

	for i := 0; i < 500; i++ {
		if len(order) == 0 || rng.Intn(3) > 0 {
			id := r.CreateDrawable()
			if live[id] {
				t.Fatalf("id %v issued twice", id)
			}
			live[id] = true
			order = append(order, id)
		} else {
			victim := order[rng.Intn(len(order))]
			if !r.DestroyDrawable(victim) {
				t.Fatalf("destroy of live id %v failed", victim)
			}
			delete(live, victim)
			for j, id := range order {
				if id == victim {
					order = append(order[:j], order[j+1:]...)
					break
				}
			}
		}

		list := r.DrawList()
		if len(list) != len(order) {
			t.Fatalf("step %d: draw list length %d, want %d", i, len(list), len(order))
		}
		for j, id := range list {
			if id != order[j] {
				t.Fatalf("step %d: draw list %v, want %v", i, list, order)
			}
			if !live[id] {
				t.Fatalf("step %d: dead id %v in draw list", i, id)
			}
		}
		if r.Registry().Len() != len(live) {
			t.Fatalf("step %d: registry has %d entries, want %d",
				i, r.Registry().Len(), len(live))
		}
	}
}

// =============================================================================
// Surface and lifecycle
// =============================================================================

func TestRenderer_ResizeWithPixelRatio(t *testing.T) {
	r, _ := newTestRenderer(t, WithPixelRatio(2))

	r.Resize(480, 360)
	w, h := r.SurfaceSize()
	if w != 960 || h != 720 {
		t.Errorf("surface = %dx%d, want 960x720", w, h)
	}

	// Fractional ratios round to the nearest device pixel.
	r2, _ := newTestRenderer(t, WithPixelRatio(1.5))
	r2.Resize(333, 333)
	w2, h2 := r2.SurfaceSize()
	if w2 != 500 || h2 != 500 {
		t.Errorf("surface = %dx%d, want 500x500", w2, h2)
	}
}

func TestRenderer_SetBackgroundColorClamps(t *testing.T) {
	r, dev := newTestRenderer(t)
	r.SetBackgroundColor(-1, 2, 0.5, 1)

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	cfg := dev.configs[len(dev.configs)-1]
	if cfg.ClearColor != [4]float32{0, 1, 0.5, 1} {
		t.Errorf("clear color = %v, want [0 1 0.5 1]", cfg.ClearColor)
	}
}

func TestRenderer_Events(t *testing.T) {
	r, _ := newTestRenderer(t)

	var got []Event
	cancel := r.Events().Subscribe(func(e Event) { got = append(got, e) })

	id := r.CreateDrawable()
	r.SetStageBounds(0, 10, 0, 10)
	r.Resize(10, 10)
	r.DestroyDrawable(id)

	want := []Event{
		{Kind: EventDrawableCreated, Drawable: id},
		{Kind: EventStageBoundsChanged},
		{Kind: EventSurfaceResized},
		{Kind: EventDrawableDestroyed, Drawable: id},
	}
	if len(got) != len(want) {
		t.Fatalf("recorded %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}

	cancel()
	r.CreateDrawable()
	if len(got) != len(want) {
		t.Error("handler fired after cancel")
	}
}

func TestRenderer_CloseDestroysEverything(t *testing.T) {
	r, dev := newTestRenderer(t)
	id := r.CreateDrawable()
	tex := &fakeTexture{w: 4, h: 4}
	r.UpdateDrawableProperties(id, Properties{Texture: tex})

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if tex.destroyed != 1 {
		t.Errorf("texture destroyed %d times, want 1", tex.destroyed)
	}
	if !dev.closed {
		t.Error("device not closed")
	}
	if r.Registry().Len() != 0 {
		t.Errorf("registry has %d entries after Close", r.Registry().Len())
	}
}

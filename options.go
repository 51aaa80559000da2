package stage

// Default stage bounds, the historical fixed logical stage size.
const (
	DefaultStageLeft   = -240
	DefaultStageRight  = 240
	DefaultStageBottom = -180
	DefaultStageTop    = 180
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := stage.NewRenderer(device,
//	    stage.WithStageBounds(-320, 320, -240, 240),
//	    stage.WithPixelRatio(2),
//	)
type Option func(*rendererOptions)

// rendererOptions holds optional configuration for Renderer creation.
type rendererOptions struct {
	left, right float32
	bottom, top float32

	// widthPx/heightPx are logical pixel dimensions; zero means derive
	// from the stage bounds.
	widthPx, heightPx int

	pixelRatio float64

	background [4]float32

	debugOverrides map[string]float32
}

// defaultRendererOptions returns the defaults: the historical stage
// bounds, pixel ratio 1, and an opaque black background.
func defaultRendererOptions() rendererOptions {
	return rendererOptions{
		left:       DefaultStageLeft,
		right:      DefaultStageRight,
		bottom:     DefaultStageBottom,
		top:        DefaultStageTop,
		pixelRatio: 1,
		background: [4]float32{0, 0, 0, 1},
	}
}

// WithStageBounds sets the initial logical stage rectangle.
func WithStageBounds(left, right, bottom, top float32) Option {
	return func(o *rendererOptions) {
		o.left, o.right = left, right
		o.bottom, o.top = bottom, top
	}
}

// WithSurfaceSize sets the initial surface size in logical pixels.
// When unset, the dimensions default to the absolute difference of the
// horizontal and vertical stage bounds.
func WithSurfaceSize(width, height int) Option {
	return func(o *rendererOptions) {
		o.widthPx = width
		o.heightPx = height
	}
}

// WithPixelRatio sets the device pixel density used to convert logical
// pixel dimensions to backing-store pixels. The ratio is explicit
// configuration: the draw loop never reads ambient display state.
func WithPixelRatio(ratio float64) Option {
	return func(o *rendererOptions) {
		if ratio > 0 {
			o.pixelRatio = ratio
		}
	}
}

// WithBackgroundColor sets the initial background clear color.
// Components are clamped to [0, 1].
func WithBackgroundColor(r, g, b, a float32) Option {
	return func(o *rendererOptions) {
		o.background = clampColor(r, g, b, a)
	}
}

// WithDebugUniformOverrides sets named effect values that are merged
// over every drawable's uniforms at draw time. Names that do not match
// a known effect are ignored. Intended for debugging shader variants.
func WithDebugUniformOverrides(overrides map[string]float32) Option {
	return func(o *rendererOptions) {
		if len(overrides) == 0 {
			return
		}
		o.debugOverrides = make(map[string]float32, len(overrides))
		for name, v := range overrides {
			o.debugOverrides[name] = v
		}
	}
}

// clampColor clamps each component to [0, 1].
func clampColor(r, g, b, a float32) [4]float32 {
	return [4]float32{clamp01(r), clamp01(g), clamp01(b), clamp01(a)}
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

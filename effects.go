package stage

import "fmt"

// Effect identifies one visual effect parameter on a drawable.
//
// Every effect has a neutral value of zero: a drawable whose effect
// values are all zero renders with the plain sprite shader.
type Effect uint8

const (
	// EffectColor shifts the sprite hue. Range -100..100.
	EffectColor Effect = iota

	// EffectBrightness brightens or darkens the sprite. Range -100..100.
	EffectBrightness

	// EffectGhost fades the sprite toward full transparency. Range 0..100.
	EffectGhost

	// EffectMosaic tiles the sprite into a grid of copies.
	EffectMosaic

	// EffectPixelate renders the sprite at a reduced sampling resolution.
	EffectPixelate

	// EffectWhirl swirls texture coordinates around the sprite center.
	EffectWhirl

	// EffectFisheye bulges texture coordinates away from the center.
	EffectFisheye

	numEffects
)

// NumEffects is the number of defined visual effects.
const NumEffects = int(numEffects)

// effectNames maps effects to their wire/property names.
var effectNames = [numEffects]string{
	EffectColor:      "color",
	EffectBrightness: "brightness",
	EffectGhost:      "ghost",
	EffectMosaic:     "mosaic",
	EffectPixelate:   "pixelate",
	EffectWhirl:      "whirl",
	EffectFisheye:    "fisheye",
}

// String returns the effect's property name.
func (e Effect) String() string {
	if e < numEffects {
		return effectNames[e]
	}
	return fmt.Sprintf("effect(%d)", uint8(e))
}

// EffectByName resolves a property name to an Effect.
// Unknown names return ok=false; callers treat them as a no-op so that
// forward-compatible callers can send names this version does not know.
func EffectByName(name string) (Effect, bool) {
	for e, n := range effectNames {
		if n == name {
			return Effect(e), true
		}
	}
	return 0, false
}

// ShaderVariant identifies the shader program for a combination of
// active effects. It is a bitmask with one bit per effect; the zero
// value is the plain textured-sprite shader.
//
// The mapping from effect set to variant is pure: the same set of
// active effects always yields the same variant, which is what lets the
// draw loop batch adjacent drawables by shader.
type ShaderVariant uint32

// Has reports whether the variant enables the given effect.
func (v ShaderVariant) Has(e Effect) bool {
	return v&(1<<e) != 0
}

// String returns a debug name like "sprite" or "sprite+ghost+whirl".
func (v ShaderVariant) String() string {
	s := "sprite"
	for e := Effect(0); e < numEffects; e++ {
		if v.Has(e) {
			s += "+" + e.String()
		}
	}
	return s
}

// EffectValues holds the numeric value of every effect, indexed by
// Effect. Zero means the effect is inactive.
type EffectValues [numEffects]float32

// Variant returns the shader variant for the currently active effects.
func (ev *EffectValues) Variant() ShaderVariant {
	var v ShaderVariant
	for e := Effect(0); e < numEffects; e++ {
		if ev[e] != 0 {
			v |= 1 << e
		}
	}
	return v
}

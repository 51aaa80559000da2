// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gogpu/naga"

	"github.com/gogpu/stage"
)

//go:embed shaders/sprite.wgsl
var spriteWGSL string

// Uniform slot assignment. EffectValues packs in enum order, so the
// first four effects land in u.effects and the rest in u.effects2:
//
//	u.effects  = (color, brightness, ghost, mosaic)
//	u.effects2 = (pixelate, whirl, fisheye, 0)

// uvSnippets hold the texcoord-warping effect code, applied before the
// texture sample in this order.
var uvSnippets = []struct {
	effect stage.Effect
	code   string
}{
	{stage.EffectMosaic, `    let mosaic_tiles = clamp(round((abs(u.effects.w) + 10.0) / 10.0), 1.0, 512.0);
    uv = fract(uv * mosaic_tiles);
`},
	{stage.EffectPixelate, `    let pixel_dims = vec2<f32>(textureDimensions(sprite_tex));
    let pixel_size = max(abs(u.effects2.x) / 10.0, 1.0);
    uv = (floor(uv * pixel_dims / pixel_size) + vec2<f32>(0.5, 0.5)) * pixel_size / pixel_dims;
`},
	{stage.EffectWhirl, `    let whirl_offset = uv - vec2<f32>(0.5, 0.5);
    let whirl_falloff = max(1.0 - length(whirl_offset) / 0.5, 0.0);
    let whirl_angle = (-u.effects2.y * 0.017453292519943295) * whirl_falloff * whirl_falloff;
    let whirl_s = sin(whirl_angle);
    let whirl_c = cos(whirl_angle);
    uv = vec2<f32>(
        whirl_offset.x * whirl_c - whirl_offset.y * whirl_s,
        whirl_offset.x * whirl_s + whirl_offset.y * whirl_c,
    ) + vec2<f32>(0.5, 0.5);
`},
	{stage.EffectFisheye, `    let fish_v = (uv - vec2<f32>(0.5, 0.5)) / 0.5;
    let fish_r = pow(length(fish_v), (105.0 + u.effects2.z) / 100.0);
    let fish_angle = atan2(fish_v.y, fish_v.x);
    uv = vec2<f32>(0.5, 0.5) + 0.5 * fish_r * vec2<f32>(cos(fish_angle), sin(fish_angle));
`},
}

// colorSnippets hold the post-sample color effect code.
var colorSnippets = []struct {
	effect stage.Effect
	code   string
}{
	{stage.EffectColor, `    var hue_hsv = rgb_to_hsv(color.rgb);
    hue_hsv.x = fract(hue_hsv.x + u.effects.x / 200.0);
    color = vec4<f32>(hsv_to_rgb(hue_hsv), color.a);
`},
	{stage.EffectBrightness, `    let bright = clamp(u.effects.y, -100.0, 100.0) / 100.0;
    color = vec4<f32>(clamp(color.rgb + vec3<f32>(bright), vec3<f32>(0.0), vec3<f32>(1.0)), color.a);
`},
	{stage.EffectGhost, `    color.a = color.a * (1.0 - clamp(u.effects.z, 0.0, 100.0) / 100.0);
`},
}

// hsvHelpers is included only when the color effect is active.
const hsvHelpers = `fn rgb_to_hsv(c: vec3<f32>) -> vec3<f32> {
    let k = vec4<f32>(0.0, -1.0 / 3.0, 2.0 / 3.0, -1.0);
    let p = mix(vec4<f32>(c.bg, k.wz), vec4<f32>(c.gb, k.xy), step(c.b, c.g));
    let q = mix(vec4<f32>(p.xyw, c.r), vec4<f32>(c.r, p.yzx), step(p.x, c.r));
    let d = q.x - min(q.w, q.y);
    let e = 1.0e-10;
    return vec3<f32>(abs(q.z + (q.w - q.y) / (6.0 * d + e)), d / (q.x + e), q.x);
}

fn hsv_to_rgb(c: vec3<f32>) -> vec3<f32> {
    let k = vec4<f32>(1.0, 2.0 / 3.0, 1.0 / 3.0, 3.0);
    let p = abs(fract(c.xxx + k.xyz) * 6.0 - k.www);
    return c.z * mix(k.xxx, clamp(p - k.xxx, vec3<f32>(0.0), vec3<f32>(1.0)), c.y);
}
`

// shaderSource generates the WGSL for one shader variant by splicing
// the active effect snippets into the sprite template. The plain
// sprite variant gets the template with the markers stripped.
func shaderSource(variant stage.ShaderVariant) string {
	var uv, col, helpers strings.Builder
	for _, s := range uvSnippets {
		if variant.Has(s.effect) {
			uv.WriteString(s.code)
		}
	}
	for _, s := range colorSnippets {
		if variant.Has(s.effect) {
			col.WriteString(s.code)
		}
	}
	if variant.Has(stage.EffectColor) {
		helpers.WriteString(hsvHelpers)
	}

	src := spriteWGSL
	src = strings.Replace(src, "//STAGE_HELPERS\n", helpers.String(), 1)
	src = strings.Replace(src, "//STAGE_UV_EFFECTS\n", uv.String(), 1)
	src = strings.Replace(src, "//STAGE_COLOR_EFFECTS\n", col.String(), 1)
	return src
}

// compileShader compiles WGSL to SPIR-V words for the Vulkan backend.
// SPIR-V is little-endian 32-bit words.
func compileShader(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("naga: %w", err)
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

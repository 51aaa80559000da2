// Command stagedemo renders a small sprite scene offscreen and saves
// it as a PNG.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"

	"github.com/gogpu/stage"
	"github.com/gogpu/stage/gpu"
)

func main() {
	var (
		width  = flag.Int("width", 480, "stage width in pixels")
		height = flag.Int("height", 360, "stage height in pixels")
		ratio  = flag.Float64("ratio", 1, "device pixel ratio")
		output = flag.String("output", "stage.png", "output file")
	)
	flag.Parse()

	dev, err := gpu.NewDevice()
	if err != nil {
		log.Fatalf("GPU device: %v", err)
	}

	r, err := stage.NewRenderer(dev,
		stage.WithSurfaceSize(*width, *height),
		stage.WithPixelRatio(*ratio),
		stage.WithBackgroundColor(0.15, 0.15, 0.2, 1),
	)
	if err != nil {
		log.Fatalf("renderer: %v", err)
	}
	defer func() { _ = r.Close() }()

	buildScene(r, dev)

	if err := r.Draw(); err != nil {
		log.Fatalf("draw: %v", err)
	}

	img, err := dev.(interface{ ReadPixels() (*image.RGBA, error) }).ReadPixels()
	if err != nil {
		log.Fatalf("readback: %v", err)
	}
	if err := savePNG(*output, img); err != nil {
		log.Fatalf("save: %v", err)
	}

	w, h := r.SurfaceSize()
	log.Printf("Demo saved to %s (%dx%d)\n", *output, w, h)
}

// buildScene populates the renderer with a ring of tinted sprites and
// one large backdrop sprite with effects applied.
func buildScene(r *stage.Renderer, dev stage.Device) {
	backdrop, err := dev.CreateTexture(checkerboard(128, 128, 16))
	if err != nil {
		log.Fatalf("texture: %v", err)
	}
	id := r.CreateDrawable()
	scale := stage.Vec2{X: 3, Y: 3}
	r.UpdateDrawableProperties(id, stage.Properties{
		Scale:   &scale,
		Texture: backdrop,
		Effects: map[string]float32{"ghost": 60},
	})

	const count = 8
	for i := 0; i < count; i++ {
		tex, err := dev.CreateTexture(swatch(48, 48, uint8(32*i)))
		if err != nil {
			log.Fatalf("texture: %v", err)
		}
		angle := 2 * math.Pi * float64(i) / count
		pos := stage.Vec2{
			X: float32(160 * math.Cos(angle)),
			Y: float32(120 * math.Sin(angle)),
		}
		rot := float32(angle)
		sid := r.CreateDrawable()
		r.UpdateDrawableProperties(sid, stage.Properties{
			Position: &pos,
			Rotation: &rot,
			Texture:  tex,
			Effects:  map[string]float32{"whirl": float32(45 * i)},
		})
	}
}

// checkerboard builds a w x h test pattern with cells of the given size.
func checkerboard(w, h, cell int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{0x30, 0x30, 0x38, 0xFF}
			if (x/cell+y/cell)%2 == 0 {
				c = color.RGBA{0xC8, 0xC8, 0xD8, 0xFF}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// swatch builds a solid-color sprite with the given hue offset.
func swatch(w, h int, hue uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	c := color.RGBA{0xFF - hue, hue, 0x80 + hue/2, 0xFF}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return png.Encode(f, img)
}

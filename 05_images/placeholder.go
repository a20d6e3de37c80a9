package images

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"story-video-pipeline/provider"
)

// palette cycles by scene number so consecutive placeholder scenes are
// visually distinct.
var palette = [][2]color.RGBA{
	{{R: 25, G: 42, B: 86, A: 255}, {R: 72, G: 52, B: 212, A: 255}},
	{{R: 19, G: 15, B: 64, A: 255}, {R: 108, G: 92, B: 231, A: 255}},
	{{R: 44, G: 44, B: 84, A: 255}, {R: 64, G: 64, B: 122, A: 255}},
	{{R: 34, G: 47, B: 62, A: 255}, {R: 87, G: 101, B: 116, A: 255}},
	{{R: 24, G: 44, B: 97, A: 255}, {R: 9, G: 132, B: 227, A: 255}},
	{{R: 53, G: 59, B: 72, A: 255}, {R: 113, G: 128, B: 147, A: 255}},
}

// placeholderProvider renders a vertical gradient with the scene number,
// entirely in-process. Terminal image provider: it only fails on disk
// errors.
type placeholderProvider struct {
	width  int
	height int
}

func (placeholderProvider) Name() string { return "placeholder" }

func (p placeholderProvider) Generate(ctx context.Context, req provider.Request) error {
	log.Printf("[images] ⚠️ scene %d: rendering gradient placeholder", req.Scene.Index)

	top, bottom := gradientFor(req.Scene.Index)
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))

	for y := 0; y < p.height; y++ {
		t := float64(y) / float64(p.height)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 255,
		}
		for x := 0; x < p.width; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	drawLabel(img, fmt.Sprintf("Scene %d", req.Scene.Index), p.width/2, p.height/2)

	f, err := os.Create(req.OutPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
}

func gradientFor(sceneIndex int) (color.RGBA, color.RGBA) {
	pair := palette[(sceneIndex-1+len(palette))%len(palette)]
	return pair[0], pair[1]
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// drawLabel centers text around (cx, cy) using the fixed 7x13 bitmap face.
func drawLabel(img *image.RGBA, text string, cx, cy int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	w := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(cx) - w/2,
		Y: fixed.I(cy),
	}
	d.DrawString(text)
}

package assets

import (
	"image"
	"image/color"

	"creative-pipeline/internal/models"

	"golang.org/x/image/draw"
)

var (
	proceduralTop    = color.RGBA{180, 200, 240, 255}
	proceduralBottom = color.RGBA{140, 165, 215, 255}
	captionColor     = color.RGBA{60, 60, 60, 255}

	emergencyBackground = color.RGBA{240, 240, 240, 255}
	emergencyShadow     = color.RGBA{200, 200, 200, 255}

	fallbackBackground = color.RGBA{220, 220, 220, 255}
	fallbackText       = color.RGBA{100, 100, 100, 255}
)

// proceduralImage is the secondary tier: a vertical gradient with three
// concentric circles and an "AI Generated" caption.
func proceduralImage(spec models.AspectRatioSpec, product string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	fillGradient(img, proceduralTop, proceduralBottom)

	cx, cy := spec.Width/2, spec.Height/2
	for i := 2; i >= 0; i-- {
		c := color.RGBA{uint8(160 + i*20), uint8(180 + i*20), uint8(220 + i*10), 255}
		fillCircle(img, cx, cy, 50+i*30, c)
	}

	drawText(img, "AI Generated: "+product, image.Pt(50, 50), textScale(spec.Width), captionColor)
	return img
}

// emergencyImage is the last tier: the product name centred on light grey.
func emergencyImage(spec models.AspectRatioSpec, product string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(emergencyBackground), image.Point{}, draw.Src)

	scale := textScale(spec.Width)
	drawTextShadow(img, product, centred(img.Bounds(), product, scale), scale, captionColor, emergencyShadow)
	return img
}

// fallbackImage is the static asset written by PrimeFallbacks.
func fallbackImage(spec models.AspectRatioSpec, product string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(fallbackBackground), image.Point{}, draw.Src)

	text := "Fallback: " + product
	scale := textScale(spec.Width)
	drawText(img, text, centred(img.Bounds(), text, scale), scale, fallbackText)
	return img
}

func centred(bounds image.Rectangle, text string, scale int) image.Point {
	x := (bounds.Dx() - textWidth(text, scale)) / 2
	y := (bounds.Dy() - lineHeight(scale)) / 2
	return image.Pt(max(x, 0), max(y, 0))
}

func fillGradient(img *image.RGBA, top, bottom color.RGBA) {
	b := img.Bounds()
	h := max(b.Dy()-1, 1)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		t := float64(y-b.Min.Y) / float64(h)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 255,
		}
		draw.Draw(img, image.Rect(b.Min.X, y, b.Max.X, y+1), image.NewUniform(c), image.Point{}, draw.Src)
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

func fillCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	rect := image.Rect(cx-r, cy-r, cx+r+1, cy+r+1).Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

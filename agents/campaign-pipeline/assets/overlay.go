package assets

import (
	"image"
	"image/color"

	"creative-pipeline/internal/models"

	"golang.org/x/image/draw"
)

const overlayMargin = 50

var (
	overlayText   = color.RGBA{255, 255, 255, 255}
	overlayShadow = color.NRGBA{0, 0, 0, 180}
)

// bottomOffset is the distance from the bottom edge to the first text line.
func bottomOffset(spec models.AspectRatioSpec) int {
	switch spec.Bucket() {
	case "portrait":
		return 200
	case "landscape":
		return 120
	default:
		return 150
	}
}

// compose resizes src to exactly the target dimensions and draws the campaign
// message over it.
func compose(src image.Image, spec models.AspectRatioSpec, message string) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	if message == "" {
		return dst
	}

	scale := textScale(spec.Width)
	lines := wrapWords(message, spec.Width-2*overlayMargin, scale)
	step := lineHeight(scale) + scale*2

	y := spec.Height - bottomOffset(spec)
	if overflow := y + len(lines)*step - (spec.Height - 10); overflow > 0 {
		y = max(y-overflow, 0)
	}

	for _, line := range lines {
		drawTextShadow(dst, line, image.Pt(overlayMargin, y), scale, overlayText, overlayShadow)
		y += step
	}
	return dst
}

// applyOverlay loads basePath, composes the final asset and writes it to
// outPath.
func applyOverlay(basePath, outPath string, spec models.AspectRatioSpec, message string) error {
	src, err := loadImage(basePath)
	if err != nil {
		return err
	}
	return savePNG(outPath, compose(src, spec, message))
}

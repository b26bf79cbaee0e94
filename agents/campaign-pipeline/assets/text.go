package assets

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var face = basicfont.Face7x13

// textScale picks an integer magnification of the bitmap face so captions
// stay legible on large canvases.
func textScale(width int) int {
	return max(2, width/300)
}

func textWidth(s string, scale int) int {
	return font.MeasureString(face, s).Ceil() * scale
}

func lineHeight(scale int) int {
	return face.Height * scale
}

// drawText renders s with its top-left corner at pt.
func drawText(dst draw.Image, s string, pt image.Point, scale int, c color.Color) {
	w := font.MeasureString(face, s).Ceil()
	if w <= 0 {
		return
	}

	glyphs := image.NewAlpha(image.Rect(0, 0, w, face.Height))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(s)

	mask := glyphs
	if scale > 1 {
		mask = image.NewAlpha(image.Rect(0, 0, w*scale, face.Height*scale))
		draw.NearestNeighbor.Scale(mask, mask.Bounds(), glyphs, glyphs.Bounds(), draw.Src, nil)
	}

	draw.DrawMask(dst, mask.Bounds().Add(pt), image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}

// drawTextShadow draws s twice: a shadow offset by two pixels, then the text.
func drawTextShadow(dst draw.Image, s string, pt image.Point, scale int, fg, shadow color.Color) {
	drawText(dst, s, pt.Add(image.Pt(2, 2)), scale, shadow)
	drawText(dst, s, pt, scale, fg)
}

// wrapWords breaks s into lines no wider than maxWidth pixels. A single word
// longer than the limit gets a line of its own.
func wrapWords(s string, maxWidth, scale int) []string {
	var lines []string
	var current string
	for _, word := range strings.Fields(s) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if current != "" && textWidth(candidate, scale) > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

package compliance

import (
	"image"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	colorSampleBudget = 250_000
	paletteDistance   = 100
)

// dominantColors returns the n most frequent colours with alpha dropped
// from the unpremultiplied value. Large images are sampled on a regular
// grid.
func dominantColors(img image.Image, n int) []color.RGBA {
	b := img.Bounds()
	pixels := b.Dx() * b.Dy()
	if pixels == 0 {
		return nil
	}
	step := max(1, int(math.Ceil(math.Sqrt(float64(pixels)/colorSampleBudget))))

	counts := make(map[color.RGBA]int)
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			counts[color.RGBA{c.R, c.G, c.B, 255}]++
		}
	}

	colors := make([]color.RGBA, 0, len(counts))
	for c := range counts {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		ci, cj := counts[colors[i]], counts[colors[j]]
		if ci != cj {
			return ci > cj
		}
		return rgbKey(colors[i]) < rgbKey(colors[j])
	})
	if len(colors) > n {
		colors = colors[:n]
	}
	return colors
}

func rgbKey(c color.RGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// parseHex parses "#rrggbb". Other forms are rejected.
func parseHex(s string) (color.RGBA, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, true
}

func manhattan(a, b color.RGBA) int {
	return absDiff(a.R, b.R) + absDiff(a.G, b.G) + absDiff(a.B, b.B)
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// paletteCompatible reports whether any image colour is close to any brand
// colour. A palette with no parseable entries is always compatible.
func paletteCompatible(imageColors []color.RGBA, palette []string) bool {
	var brand []color.RGBA
	for _, p := range palette {
		if c, ok := parseHex(p); ok {
			brand = append(brand, c)
		}
	}
	if len(brand) == 0 {
		return true
	}

	for _, ic := range imageColors {
		for _, bc := range brand {
			if manhattan(ic, bc) < paletteDistance {
				return true
			}
		}
	}
	return false
}

// colorModelName labels a decoder colour model the way image tools usually
// name modes.
func colorModelName(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	switch m {
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model:
		return "RGBA"
	case color.YCbCrModel:
		return "RGB"
	case color.NYCbCrAModel:
		return "RGBA"
	case color.GrayModel, color.Gray16Model:
		return "L"
	case color.CMYKModel:
		return "CMYK"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	}
	return "unknown"
}

package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/pagescan/internal/geometry"
)

// OutlineColor returns a distinct, saturated colour for the n-th outline.
//
// Hues advance by the golden angle so consecutive pages never share a colour.
func OutlineColor(n int) color.RGBA {
	hue := math.Mod(float64(n)*137.508, 360)
	r, g, b := colorful.Hsv(hue, 0.85, 1).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// ParseColor parses a "#RRGGBB" string, falling back to def on error.
func ParseColor(hex string, def color.RGBA) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return def
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// DrawQuad returns a copy of img with the quadrilateral outlined, each corner
// numbered 0-3 and the label printed beside the top-left corner.
func DrawQuad(img *image.RGBA, q geometry.Quad, outline color.RGBA, label string) *image.RGBA {
	result := CloneRGBA(img)

	for i := 0; i < 4; i++ {
		drawLine(result, q[i], q[(i+1)%4], outline, 2)
	}

	labelColor := color.RGBA{255, 255, 255, 255}
	bgColor := color.RGBA{0, 0, 0, 180}
	for i, p := range q {
		drawLabel(result, int(p.X)+3, int(p.Y)+3, fmt.Sprintf("%d", i), labelColor, bgColor)
	}
	if label != "" {
		tl := q[geometry.TopLeft]
		drawLabel(result, int(tl.X)+3, int(tl.Y)+12, label, labelColor, bgColor)
	}
	return result
}

// drawLine plots a thick segment by stepping one pixel at a time along the
// longer axis.
func drawLine(img *image.RGBA, a, b geometry.Point, c color.RGBA, thickness int) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	if steps == 0 {
		steps = 1
	}
	bounds := img.Bounds()
	half := thickness / 2
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		cx := int(math.Round(a.X + t*(b.X-a.X)))
		cy := int(math.Round(a.Y + t*(b.Y-a.Y)))
		for dy := -half; dy <= half; dy++ {
			for dx := -half; dx <= half; dx++ {
				px, py := cx+dx, cy+dy
				if image.Pt(px, py).In(bounds) {
					img.SetRGBA(px, py, c)
				}
			}
		}
	}
}

// Label font metrics, in pixels.
const (
	glyphCols    = 3
	glyphRows    = 5
	glyphAdvance = glyphCols + 1
)

// glyphs is a 3x5 bitmap font for corner numbers and confidence values. Each
// row is a bitmask with the leftmost column in the high bit.
var glyphs = map[rune][glyphRows]uint8{
	'0': {0b111, 0b101, 0b101, 0b101, 0b111},
	'1': {0b010, 0b110, 0b010, 0b010, 0b111},
	'2': {0b111, 0b001, 0b111, 0b100, 0b111},
	'3': {0b111, 0b001, 0b111, 0b001, 0b111},
	'4': {0b101, 0b101, 0b111, 0b001, 0b001},
	'5': {0b111, 0b100, 0b111, 0b001, 0b111},
	'6': {0b111, 0b100, 0b111, 0b101, 0b111},
	'7': {0b111, 0b001, 0b001, 0b001, 0b001},
	'8': {0b111, 0b101, 0b111, 0b101, 0b111},
	'9': {0b111, 0b101, 0b111, 0b001, 0b111},
	'.': {0b000, 0b000, 0b000, 0b000, 0b010},
	'-': {0b000, 0b000, 0b111, 0b000, 0b000},
}

// drawLabel prints text with its top-left at (x, y) over a translucent
// backdrop one pixel wider than the text on each side. Runes without a glyph
// leave a blank cell.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	bounds := img.Bounds()
	cells := []rune(text)

	backdrop := image.Rect(x-1, y-1, x+len(cells)*glyphAdvance, y+glyphRows+1).Intersect(bounds)
	for py := backdrop.Min.Y; py < backdrop.Max.Y; py++ {
		for px := backdrop.Min.X; px < backdrop.Max.X; px++ {
			img.SetRGBA(px, py, blend(img.RGBAAt(px, py), bg))
		}
	}

	for i, r := range cells {
		glyph, ok := glyphs[r]
		if !ok {
			continue
		}
		left := x + i*glyphAdvance
		for row, bits := range glyph {
			for col := 0; col < glyphCols; col++ {
				p := image.Pt(left+col, y+row)
				if bits&(1<<(glyphCols-1-col)) != 0 && p.In(bounds) {
					img.SetRGBA(p.X, p.Y, fg)
				}
			}
		}
	}
}

// blend composites a non-premultiplied overlay colour onto dst.
func blend(dst, over color.RGBA) color.RGBA {
	a := float64(over.A) / 255
	mix := func(d, o uint8) uint8 {
		return uint8(float64(d)*(1-a) + float64(o)*a + 0.5)
	}
	return color.RGBA{R: mix(dst.R, over.R), G: mix(dst.G, over.G), B: mix(dst.B, over.B), A: 255}
}

// Package render replays annotation sequences onto transparent overlay
// rasters. The committed redraw is always a full replay from an empty
// overlay: draw order determines occlusion, which is what lets eraser
// strokes interleaved with pen strokes clear exactly what preceded them.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"markpad/internal/state"
)

// Redraw clears dst and replays the annotations in sequence order,
// scaling normalized coordinates by dst's pixel dimensions. Calling it
// twice with the same inputs produces identical pixels.
func Redraw(dst *image.RGBA, anns []state.Annotation) {
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
	for _, a := range anns {
		drawAnnotation(dst, a)
	}
}

// StrokeSegment paints a single segment of the live in-progress stroke so
// the user sees ink without waiting for a full replay. The committed
// stroke is redrawn from scratch on pointer-up.
func StrokeSegment(dst *image.RGBA, from, to state.Point, col string, width float64, eraser bool) {
	drawStroke(dst, state.Annotation{
		Kind:     state.KindStroke,
		Points:   []state.Point{from, to},
		Color:    col,
		Width:    width,
		IsEraser: eraser,
	})
}

func drawAnnotation(dst *image.RGBA, a state.Annotation) {
	switch a.Kind {
	case state.KindStroke:
		drawStroke(dst, a)
	case state.KindText:
		drawText(dst, a)
	}
}

func drawStroke(dst *image.RGBA, a state.Annotation) {
	if len(a.Points) == 0 {
		return
	}
	if a.IsEraser {
		// Erasing clears overlay alpha where the stroke passes. The stroke
		// is rasterized into a scratch mask and its coverage knocked out of
		// dst, so the content raster underneath is never touched.
		mask := image.NewRGBA(dst.Bounds())
		strokePolyline(mask, a.Points, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, a.Width)
		eraseCoverage(dst, mask)
		return
	}
	strokePolyline(dst, a.Points, ParseColor(a.Color), a.Width)
}

// strokePolyline traces the points scaled to dst pixels as one stroked
// path with round caps and joins.
func strokePolyline(dst *image.RGBA, pts []state.Point, col color.Color, width float64) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}
	if width <= 0 {
		width = 1
	}

	scanner := rasterx.NewScannerGV(w, h, dst, b)
	dasher := rasterx.NewDasher(w, h, scanner)
	dasher.SetColor(col)
	dasher.SetStroke(fixed.Int26_6(width*64), fixed.Int26_6(4*64),
		rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.Round, nil, 0)

	dasher.Start(toFixed(pts[0], w, h))
	if len(pts) == 1 {
		// A tap: nudge one sub-pixel so the round caps render a dot.
		dasher.Line(toFixed(state.Point{X: pts[0].X + 0.0001, Y: pts[0].Y}, w, h))
	}
	for _, p := range pts[1:] {
		dasher.Line(toFixed(p, w, h))
	}
	dasher.Stop(false)
	dasher.Draw()
}

func toFixed(p state.Point, w, h int) fixed.Point26_6 {
	return rasterx.ToFixedP(p.X*float64(w), p.Y*float64(h))
}

// eraseCoverage removes mask's alpha coverage from dst (Porter-Duff
// dst-out). Both images share the same bounds.
func eraseCoverage(dst, mask *image.RGBA) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := dst.PixOffset(b.Min.X, y)
		mrow := mask.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			ma := uint32(mask.Pix[mrow+3])
			if ma != 0 {
				keep := 255 - ma
				dst.Pix[row+0] = uint8(uint32(dst.Pix[row+0]) * keep / 255)
				dst.Pix[row+1] = uint8(uint32(dst.Pix[row+1]) * keep / 255)
				dst.Pix[row+2] = uint8(uint32(dst.Pix[row+2]) * keep / 255)
				dst.Pix[row+3] = uint8(uint32(dst.Pix[row+3]) * keep / 255)
			}
			row += 4
			mrow += 4
		}
	}
}

func drawText(dst *image.RGBA, a state.Annotation) {
	if a.Text == "" {
		return
	}
	b := dst.Bounds()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ParseColor(a.Color)),
		Face: labelFont(),
		Dot: fixed.P(
			b.Min.X+int(a.X*float64(b.Dx())),
			b.Min.Y+int(a.Y*float64(b.Dy())),
		),
	}
	d.DrawString(a.Text)
}

var namedColors = map[string]color.NRGBA{
	"black":  {A: 255},
	"white":  {R: 255, G: 255, B: 255, A: 255},
	"red":    {R: 255, A: 255},
	"green":  {G: 255, A: 255},
	"blue":   {B: 255, A: 255},
	"yellow": {R: 255, G: 255, A: 255},
}

// ParseColor resolves an annotation color string: #rrggbb, #rrggbbaa or
// one of the palette names. Unknown values fall back to black so a bad
// color never hides a mark entirely.
func ParseColor(s string) color.Color {
	if c, ok := namedColors[s]; ok {
		return c
	}
	if len(s) == 7 || len(s) == 9 {
		if s[0] == '#' {
			var v [4]uint8
			v[3] = 255
			ok := true
			for i := 0; i*2+2 < len(s); i++ {
				hi, okHi := hexVal(s[1+i*2])
				lo, okLo := hexVal(s[2+i*2])
				if !okHi || !okLo {
					ok = false
					break
				}
				v[i] = hi<<4 | lo
			}
			if ok {
				return color.NRGBA{R: v[0], G: v[1], B: v[2], A: v[3]}
			}
		}
	}
	return color.NRGBA{A: 255}
}

func hexVal(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

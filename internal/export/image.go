package export

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	xdraw "golang.org/x/image/draw"

	"markpad/internal/content"
	"markpad/internal/render"
	"markpad/internal/state"
)

// jpegQuality matches the on-screen save quality (~0.85).
const jpegQuality = 85

func exportImage(src content.Source, anns []state.Annotation, page, overlayW, overlayH int) (Artifact, error) {
	raster, err := src.RenderPage(1)
	if err != nil {
		return Artifact{}, fmt.Errorf("export: %w", err)
	}
	if overlayW <= 0 || overlayH <= 0 {
		overlayW = raster.Bounds().Dx()
		overlayH = raster.Bounds().Dy()
	}
	out := Flatten(raster, pageSubset(anns, page), overlayW, overlayH)
	data, err := encodeJPEG(out)
	if err != nil {
		return Artifact{}, fmt.Errorf("export: %w", err)
	}
	return Artifact{
		Name: fmt.Sprintf("annotated-%s-page%d.jpg", content.TypeImage, pageLabel(page)),
		MIME: "image/jpeg",
		Data: data,
	}, nil
}

// pageLabel maps the unpaginated page tag (0) to the 1-based label used in
// artifact names.
func pageLabel(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Flatten composites content and one page's annotations into an opaque
// w×h raster: white background, content letterboxed and centered at
// min-ratio scale, annotations replayed over the full surface. That is
// the same geometry the live overlay uses, so exports match the screen.
func Flatten(contentImg image.Image, anns []state.Annotation, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)

	cb := contentImg.Bounds()
	if cb.Dx() > 0 && cb.Dy() > 0 {
		sx := float64(w) / float64(cb.Dx())
		sy := float64(h) / float64(cb.Dy())
		scale := sx
		if sy < sx {
			scale = sy
		}
		dw := int(float64(cb.Dx()) * scale)
		dh := int(float64(cb.Dy()) * scale)
		x0 := (w - dw) / 2
		y0 := (h - dh) / 2
		xdraw.ApproxBiLinear.Scale(out, image.Rect(x0, y0, x0+dw, y0+dh), contentImg, cb, xdraw.Over, nil)
	}

	overlay := image.NewRGBA(out.Bounds())
	render.Redraw(overlay, anns)
	draw.Draw(out, out.Bounds(), overlay, image.Point{}, draw.Over)
	return out
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

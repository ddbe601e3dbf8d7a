package export

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	"github.com/jung-kurt/gofpdf"

	"markpad/internal/content"
	"markpad/internal/render"
	"markpad/internal/state"
)

func exportPDF(src content.Source, anns []state.Annotation) (Artifact, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	for page := 1; page <= src.PageCount(); page++ {
		raster, err := src.RenderPage(page)
		if err != nil {
			return Artifact{}, fmt.Errorf("export page %d: %w", page, err)
		}
		flat := FlattenPage(raster, pageSubset(anns, page))
		data, err := encodeJPEG(flat)
		if err != nil {
			return Artifact{}, fmt.Errorf("export page %d: %w", page, err)
		}

		// Page size in points at the source render resolution, so the
		// document keeps the original physical page dimensions.
		wpt := float64(flat.Bounds().Dx()) * 72 / content.RenderDPI
		hpt := float64(flat.Bounds().Dy()) * 72 / content.RenderDPI
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: wpt, Ht: hpt})

		opts := gofpdf.ImageOptions{ImageType: "JPEG"}
		name := fmt.Sprintf("page-%d", page)
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		pdf.ImageOptions(name, 0, 0, wpt, hpt, false, opts, 0, "")
	}
	if pdf.Err() {
		return Artifact{}, fmt.Errorf("export: assemble document: %s", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Artifact{}, fmt.Errorf("export: write document: %w", err)
	}
	return Artifact{
		Name: fmt.Sprintf("annotated-%s.pdf", content.TypePDF),
		MIME: "application/pdf",
		Data: buf.Bytes(),
	}, nil
}

// FlattenPage replays one page's annotations directly onto that page's
// freshly rendered raster. The overlay is sized to the raster, never to
// the screen, so exports are independent of the current viewport.
func FlattenPage(raster image.Image, anns []state.Annotation) *image.RGBA {
	b := raster.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), raster, b.Min, draw.Over)

	overlay := image.NewRGBA(out.Bounds())
	render.Redraw(overlay, anns)
	draw.Draw(out, out.Bounds(), overlay, image.Point{}, draw.Over)
	return out
}

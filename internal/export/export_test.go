package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"
	"testing"
	"time"

	"markpad/internal/content"
	"markpad/internal/state"
)

// fakeSource serves solid light-gray pages so annotation ink is easy to
// spot in the flattened output.
type fakeSource struct {
	pages      int
	w, h       int
	gate       chan struct{} // when non-nil, RenderPage blocks until closed
	failAtPage int
}

func (f *fakeSource) PageCount() int { return f.pages }

func (f *fakeSource) RenderPage(page int) (image.Image, error) {
	if f.gate != nil {
		<-f.gate
	}
	if page == f.failAtPage {
		return nil, errors.New("decode failed")
	}
	if page < 1 || page > f.pages {
		return nil, fmt.Errorf("no page %d", page)
	}
	img := image.NewRGBA(image.Rect(0, 0, f.w, f.h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{R: 230, G: 230, B: 230, A: 255}), image.Point{}, draw.Src)
	return img, nil
}

func (f *fakeSource) Close() error { return nil }

func pageStroke(page int) state.Annotation {
	return state.NewStroke(
		[]state.Point{{X: 0.1, Y: 0.5}, {X: 0.9, Y: 0.5}},
		"#ff0000", 8, false, page,
	)
}

func hasRedInk(img *image.RGBA) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.R > 200 && c.G < 100 && c.B < 100 {
				return true
			}
		}
	}
	return false
}

func TestThreePageExportScenario(t *testing.T) {
	src := &fakeSource{pages: 3, w: 200, h: 100}
	anns := []state.Annotation{pageStroke(1), pageStroke(2)}

	// Per-page flattening: page 1 and 2 carry their own stroke, page 3 is
	// clean and pixel-identical to an unannotated flatten.
	for page := 1; page <= 2; page++ {
		raster, _ := src.RenderPage(page)
		if !hasRedInk(FlattenPage(raster, pageSubset(anns, page))) {
			t.Errorf("page %d flatten is missing its stroke", page)
		}
	}
	raster, _ := src.RenderPage(3)
	got := FlattenPage(raster, pageSubset(anns, 3))
	want := FlattenPage(raster, nil)
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Error("page 3 flatten differs from an unannotated page")
	}

	var e Exporter
	art, err := e.Run(src, content.TypePDF, anns, 1, 200, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(art.Data, []byte("%PDF")) {
		t.Fatal("artifact is not a PDF document")
	}
	if art.Name != "annotated-pdf.pdf" || art.MIME != "application/pdf" {
		t.Fatalf("artifact metadata = %s / %s", art.Name, art.MIME)
	}
	// Three embedded page images.
	if n := bytes.Count(art.Data, []byte("/DCTDecode")); n != 3 {
		t.Fatalf("document embeds %d JPEG pages, want 3", n)
	}
}

// Coordinates are stored relative to the displayed page, so an annotation
// on the page's left edge must flatten onto the raster's left edge, not
// shifted by whatever letterbox the widget showed.
func TestPageEdgeAnnotationFlattensAtPageEdge(t *testing.T) {
	raster := image.NewRGBA(image.Rect(0, 0, 120, 160))
	draw.Draw(raster, raster.Bounds(), image.NewUniform(color.NRGBA{R: 230, G: 230, B: 230, A: 255}), image.Point{}, draw.Src)

	edge := state.NewStroke(
		[]state.Point{{X: 0, Y: 0.2}, {X: 0, Y: 0.8}},
		"#ff0000", 8, false, 1,
	)
	flat := FlattenPage(raster, []state.Annotation{edge})

	if c := flat.RGBAAt(1, 80); c.R < 200 || c.G > 100 {
		t.Fatalf("left edge = %v, want red ink", c)
	}
	if c := flat.RGBAAt(30, 80); c.R > 240 && c.G < 100 {
		t.Fatalf("quarter width = %v, want no ink", c)
	}
}

func TestImageExportNamingAndEncoding(t *testing.T) {
	src := &fakeSource{pages: 1, w: 120, h: 80}
	var e Exporter
	art, err := e.Run(src, content.TypeImage, []state.Annotation{pageStroke(0)}, 0, 240, 160)
	if err != nil {
		t.Fatal(err)
	}
	if art.Name != "annotated-image-page1.jpg" || art.MIME != "image/jpeg" {
		t.Fatalf("artifact metadata = %s / %s", art.Name, art.MIME)
	}
	// JPEG SOI marker.
	if len(art.Data) < 2 || art.Data[0] != 0xff || art.Data[1] != 0xd8 {
		t.Fatal("artifact is not a JPEG")
	}
}

func TestEraserOnlyExportMatchesCleanExport(t *testing.T) {
	raster := image.NewRGBA(image.Rect(0, 0, 200, 100))
	draw.Draw(raster, raster.Bounds(), image.NewUniform(color.NRGBA{R: 10, G: 120, B: 210, A: 255}), image.Point{}, draw.Src)

	eraser := state.NewStroke(
		[]state.Point{{X: 0.2, Y: 0.5}, {X: 0.8, Y: 0.5}},
		"white", 20, true, 0,
	)
	clean := Flatten(raster, nil, 200, 100)
	erased := Flatten(raster, []state.Annotation{eraser}, 200, 100)
	if !bytes.Equal(clean.Pix, erased.Pix) {
		t.Fatal("an eraser stroke with nothing to erase changed the content")
	}
}

func TestFlattenLetterboxesContent(t *testing.T) {
	// Tall content on a wide surface: white bars left and right, content
	// centered.
	raster := image.NewRGBA(image.Rect(0, 0, 50, 100))
	draw.Draw(raster, raster.Bounds(), image.NewUniform(color.NRGBA{A: 255}), image.Point{}, draw.Src)

	out := Flatten(raster, nil, 200, 100)
	if c := out.RGBAAt(5, 50); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Fatalf("left margin = %v, want white", c)
	}
	if c := out.RGBAAt(100, 50); c.R > 50 {
		t.Fatalf("center = %v, want content", c)
	}
}

func TestConcurrentExportRejected(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{pages: 1, w: 50, h: 50, gate: gate}
	var e Exporter

	var wg sync.WaitGroup
	wg.Add(1)
	firstErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		_, err := e.Run(src, content.TypeImage, nil, 0, 50, 50)
		firstErr <- err
	}()

	// Wait until the first run holds the busy flag.
	for !e.Busy() {
		time.Sleep(time.Millisecond)
	}
	if _, err := e.Run(src, content.TypeImage, nil, 0, 50, 50); !errors.Is(err, ErrBusy) {
		t.Fatalf("second export returned %v, want ErrBusy", err)
	}

	close(gate)
	wg.Wait()
	if err := <-firstErr; err != nil {
		t.Fatalf("first export failed: %v", err)
	}
	if e.Busy() {
		t.Fatal("busy flag stuck after export finished")
	}
}

func TestExportFailureClearsBusyFlag(t *testing.T) {
	src := &fakeSource{pages: 3, w: 50, h: 50, failAtPage: 2}
	var e Exporter
	_, err := e.Run(src, content.TypePDF, nil, 1, 50, 50)
	if err == nil || !strings.Contains(err.Error(), "page 2") {
		t.Fatalf("export error = %v, want page 2 failure", err)
	}
	if e.Busy() {
		t.Fatal("busy flag stuck after failed export")
	}
}

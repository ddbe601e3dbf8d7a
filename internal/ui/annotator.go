// Package ui hosts the editing surface and its controls. All widget state
// is owned by the fyne event loop; background work (page decodes, exports)
// re-enters it through fyne.Do, so the annotator itself needs no locking.
package ui

import (
	"image"
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"markpad/internal/render"
	"markpad/internal/state"
)

// Tool selects how pointer input is interpreted.
type Tool int

const (
	ToolPen Tool = iota
	ToolEraser
	ToolText
)

// Eraser strokes are stored as wide white strokes with the eraser flag,
// so replaying the sequence reproduces the erase.
const (
	eraserColor = "white"
	eraserWidth = 20
)

// Annotator is the interactive editing surface: the content raster below,
// a transparent overlay anchored exactly over it, and the pointer state
// machine that turns drags into stroke annotations. Pointer positions are
// normalized to the displayed content rectangle before they are stored,
// so annotations stay pinned to the content across resizes, page renders
// and exports.
type Annotator struct {
	widget.BaseWidget

	store    *state.Store
	readOnly bool

	raster  image.Image // current page content, nil until the first decode lands
	overlay *image.RGBA
	page    int // active page tag; 0 for single-image content

	tool  Tool
	color string
	width float64

	drawing bool
	pending []state.Point

	contentImg *canvas.Image
	overlayImg *canvas.Image

	// OnTextPrompt asks the shell for label text; commit receives the
	// entered string (empty input adds nothing).
	OnTextPrompt func(commit func(text string))
}

var _ fyne.Widget = (*Annotator)(nil)
var _ fyne.Draggable = (*Annotator)(nil)
var _ desktop.Mouseable = (*Annotator)(nil)
var _ desktop.Hoverable = (*Annotator)(nil)

func NewAnnotator(store *state.Store, readOnly bool) *Annotator {
	b := &Annotator{
		store:    store,
		readOnly: readOnly,
		tool:     ToolPen,
		color:    "#000000",
		width:    3,
		overlay:  image.NewRGBA(image.Rect(0, 0, 1, 1)),
	}
	// Both images are positioned to the displayed content rectangle by the
	// renderer, so they stretch to fill it and stay in register.
	b.contentImg = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	b.contentImg.FillMode = canvas.ImageFillStretch
	b.overlayImg = canvas.NewImageFromImage(b.overlay)
	b.overlayImg.FillMode = canvas.ImageFillStretch
	b.ExtendBaseWidget(b)
	return b
}

func (b *Annotator) SetTool(t Tool)      { b.tool = t }
func (b *Annotator) SetColor(hex string) { b.color = hex }
func (b *Annotator) SetWidth(w float64)  { b.width = w }
func (b *Annotator) ActivePage() int     { return b.page }
func (b *Annotator) CanDraw() bool       { return b.raster != nil && !b.readOnly }

// OverlaySize reports the overlay's pixel dimensions, matching the
// displayed content rectangle. Exports use it as the output raster size
// for single-image content.
func (b *Annotator) OverlaySize() (int, int) {
	r := b.overlay.Bounds()
	return r.Dx(), r.Dy()
}

// displayRect is the widget-space rectangle the content raster occupies:
// scaled by the smaller axis ratio and centered, the same placement the
// flattened exports use. Before the first decode it spans the whole
// surface.
func (b *Annotator) displayRect() (fyne.Position, fyne.Size) {
	size := b.Size()
	if b.raster == nil {
		return fyne.Position{}, size
	}
	rb := b.raster.Bounds()
	if rb.Dx() == 0 || rb.Dy() == 0 || size.Width <= 0 || size.Height <= 0 {
		return fyne.Position{}, size
	}
	scale := math.Min(
		float64(size.Width)/float64(rb.Dx()),
		float64(size.Height)/float64(rb.Dy()),
	)
	w := float32(float64(rb.Dx()) * scale)
	h := float32(float64(rb.Dy()) * scale)
	return fyne.NewPos((size.Width-w)/2, (size.Height-h)/2), fyne.NewSize(w, h)
}

func (b *Annotator) layoutContent() {
	pos, size := b.displayRect()
	b.contentImg.Move(pos)
	b.contentImg.Resize(size)
	b.overlayImg.Move(pos)
	b.overlayImg.Resize(size)
}

// SetRaster swaps in a freshly decoded content raster and makes page the
// active page. Called after every page navigation and initial load.
func (b *Annotator) SetRaster(page int, raster image.Image) {
	b.raster = raster
	b.page = page
	b.contentImg.Image = raster
	b.layoutContent()
	canvas.Refresh(b.contentImg)
	b.rebuildOverlay()
}

// Undo removes the most recent annotation on the active page.
func (b *Annotator) Undo() {
	if b.store.UndoPage(b.page) {
		b.Redraw()
	}
}

// ClearActivePage removes every annotation on the active page.
func (b *Annotator) ClearActivePage() {
	if b.store.ClearPage(b.page) {
		b.Redraw()
	}
}

// Redraw replays the active page's annotations onto a cleared overlay.
func (b *Annotator) Redraw() {
	render.Redraw(b.overlay, b.store.ForPage(b.page))
	b.refreshOverlay()
}

// Resize rebuilds the overlay at the content rectangle's new pixel size;
// the stored normalized coordinates make the replay land in the same
// relative spots on the content.
func (b *Annotator) Resize(size fyne.Size) {
	b.BaseWidget.Resize(size)
	b.rebuildOverlay()
}

func (b *Annotator) rebuildOverlay() {
	_, size := b.displayRect()
	w := int(size.Width)
	h := int(size.Height)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	b.overlay = image.NewRGBA(image.Rect(0, 0, w, h))
	render.Redraw(b.overlay, b.store.ForPage(b.page))
	b.refreshOverlay()
}

func (b *Annotator) refreshOverlay() {
	b.overlayImg.Image = b.overlay
	canvas.Refresh(b.overlayImg)
}

func (b *Annotator) normalize(pos fyne.Position) state.Point {
	origin, size := b.displayRect()
	p := state.Point{}
	if size.Width > 0 {
		p.X = float64(pos.X-origin.X) / float64(size.Width)
	}
	if size.Height > 0 {
		p.Y = float64(pos.Y-origin.Y) / float64(size.Height)
	}
	return clampPoint(p)
}

func clampPoint(p state.Point) state.Point {
	if p.X < 0 {
		p.X = 0
	}
	if p.X > 1 {
		p.X = 1
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y > 1 {
		p.Y = 1
	}
	return p
}

func (b *Annotator) strokeStyle() (col string, width float64, eraser bool) {
	if b.tool == ToolEraser {
		return eraserColor, eraserWidth, true
	}
	return b.color, b.width, false
}

func (b *Annotator) MouseDown(e *desktop.MouseEvent) {
	if !b.CanDraw() || e.Button != desktop.MouseButtonPrimary {
		return
	}
	p := b.normalize(e.Position)
	if b.tool == ToolText {
		if b.OnTextPrompt == nil {
			return
		}
		page := b.page
		b.OnTextPrompt(func(text string) {
			if text == "" {
				return
			}
			b.store.Append(state.NewText(text, p.X, p.Y, b.color, page))
			b.Redraw()
		})
		return
	}
	b.drawing = true
	b.pending = []state.Point{p}
}

func (b *Annotator) Dragged(e *fyne.DragEvent) {
	if !b.drawing {
		return
	}
	p := b.normalize(e.Position)
	prev := b.pending[len(b.pending)-1]
	b.pending = append(b.pending, p)

	// Paint just the new segment for immediate feedback; the committed
	// stroke is replayed in full on release.
	col, width, eraser := b.strokeStyle()
	render.StrokeSegment(b.overlay, prev, p, col, width, eraser)
	b.refreshOverlay()
}

func (b *Annotator) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.finalize()
	}
}

// MouseOut ends the stroke when the pointer leaves the surface.
func (b *Annotator) MouseOut() { b.finalize() }

func (b *Annotator) DragEnd() { b.finalize() }

func (b *Annotator) MouseIn(*desktop.MouseEvent)    {}
func (b *Annotator) MouseMoved(*desktop.MouseEvent) {}

func (b *Annotator) finalize() {
	if !b.drawing {
		return
	}
	b.drawing = false
	pts := b.pending
	b.pending = nil
	if len(pts) == 0 {
		return
	}
	col, width, eraser := b.strokeStyle()
	b.store.Append(state.NewStroke(pts, col, width, eraser, b.page))
	b.Redraw()
}

func (b *Annotator) CreateRenderer() fyne.WidgetRenderer {
	r := &annotatorRenderer{board: b}
	r.background = canvas.NewRectangle(color.White)
	r.objects = []fyne.CanvasObject{r.background, b.contentImg, b.overlayImg}
	return r
}

type annotatorRenderer struct {
	board      *Annotator
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
}

func (r *annotatorRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.board.layoutContent()
}

func (r *annotatorRenderer) MinSize() fyne.Size {
	return fyne.NewSize(480, 360)
}

func (r *annotatorRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *annotatorRenderer) Refresh()                     { canvas.Refresh(r.board) }
func (r *annotatorRenderer) Destroy()                     {}

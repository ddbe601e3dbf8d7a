package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	Hex      string
	OnTapped func(hex string)
}

func newColorSwatch(c color.Color, hex string, tapped func(hex string)) *colorSwatch {
	s := &colorSwatch{Color: c, Hex: hex, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Hex)
	}
}

// --- The Main Toolbar ---
func NewToolbar(board *Annotator) fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() {
			board.SetTool(ToolPen)
		}), // Pen
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			board.SetTool(ToolEraser)
		}), // Eraser
		widget.NewToolbarAction(theme.DocumentIcon(), func() {
			board.SetTool(ToolText)
		}), // Text label
	)

	// --- Color Palette ---
	onColorTapped := func(hex string) {
		board.SetColor(hex)
	}
	colorBox := container.NewHBox(
		newColorSwatch(color.Black, "#000000", onColorTapped),
		newColorSwatch(color.NRGBA{R: 255, A: 255}, "#ff0000", onColorTapped),
		newColorSwatch(color.NRGBA{G: 255, A: 255}, "#00ff00", onColorTapped),
		newColorSwatch(color.NRGBA{B: 255, A: 255}, "#0000ff", onColorTapped),
		newColorSwatch(color.NRGBA{R: 255, G: 255, A: 255}, "#ffff00", onColorTapped),
	)

	// --- Stroke Width Slider ---
	strokeSlider := widget.NewSlider(1.0, 50.0)
	strokeSlider.SetValue(3.0)
	strokeSlider.OnChanged = func(val float64) {
		board.SetWidth(val)
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), strokeSlider)

	// --- Assemble everything ---
	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tb,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
	)
}

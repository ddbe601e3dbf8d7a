package state

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Kind discriminates the annotation variants on the wire.
type Kind string

const (
	KindStroke Kind = "stroke"
	KindText   Kind = "text"
)

// Point is a position normalized to the drawing surface: both coordinates
// are fractions of the surface width/height in [0,1], so a stored
// annotation is independent of the pixel size it was captured at.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Annotation is a single user mark. Stroke annotations use Points, Color,
// Width and IsEraser; text annotations use Text, X, Y and Color. Page is
// 1-indexed and zero when the content is a single unpaginated image.
type Annotation struct {
	ID       string
	Kind     Kind
	Points   []Point
	Color    string
	Width    float64
	IsEraser bool
	Text     string
	X, Y     float64
	Page     int
}

// NewStroke builds a stroke annotation with a fresh ID. Points are clamped
// to the unit square so a capture surface reporting slightly out-of-range
// positions can never persist an out-of-range coordinate.
func NewStroke(points []Point, color string, width float64, eraser bool, page int) Annotation {
	clamped := make([]Point, len(points))
	for i, p := range points {
		clamped[i] = Point{X: clamp01(p.X), Y: clamp01(p.Y)}
	}
	return Annotation{
		ID:       uuid.NewString(),
		Kind:     KindStroke,
		Points:   clamped,
		Color:    color,
		Width:    width,
		IsEraser: eraser,
		Page:     page,
	}
}

// NewText builds a text annotation anchored at the given normalized position.
func NewText(text string, x, y float64, color string, page int) Annotation {
	return Annotation{
		ID:    uuid.NewString(),
		Kind:  KindText,
		Text:  text,
		X:     clamp01(x),
		Y:     clamp01(y),
		Color: color,
		Page:  page,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Wire shapes. Strokes and text labels serialize different field sets, so
// each kind gets its own struct rather than one struct leaking zero-valued
// fields of the other kind.
type strokeWire struct {
	ID       string  `json:"id,omitempty"`
	Kind     Kind    `json:"kind"`
	Points   []Point `json:"points"`
	Color    string  `json:"color"`
	Width    float64 `json:"width"`
	IsEraser bool    `json:"isEraser"`
	Page     int     `json:"page,omitempty"`
}

type textWire struct {
	ID    string  `json:"id,omitempty"`
	Kind  Kind    `json:"kind"`
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
	Page  int     `json:"page,omitempty"`
}

func (a Annotation) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case KindText:
		return json.Marshal(textWire{
			ID: a.ID, Kind: KindText, Text: a.Text,
			X: a.X, Y: a.Y, Color: a.Color, Page: a.Page,
		})
	case KindStroke:
		return json.Marshal(strokeWire{
			ID: a.ID, Kind: KindStroke, Points: a.Points,
			Color: a.Color, Width: a.Width, IsEraser: a.IsEraser, Page: a.Page,
		})
	default:
		return nil, fmt.Errorf("annotation %q: unknown kind %q", a.ID, a.Kind)
	}
}

func (a *Annotation) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string  `json:"id"`
		Kind     Kind    `json:"kind"`
		Points   []Point `json:"points"`
		Color    string  `json:"color"`
		Width    float64 `json:"width"`
		IsEraser bool    `json:"isEraser"`
		Text     string  `json:"text"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Page     int     `json:"page"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case KindStroke, KindText:
	default:
		return fmt.Errorf("unknown annotation kind %q", raw.Kind)
	}
	*a = Annotation{
		ID: raw.ID, Kind: raw.Kind, Points: raw.Points,
		Color: raw.Color, Width: raw.Width, IsEraser: raw.IsEraser,
		Text: raw.Text, X: raw.X, Y: raw.Y, Page: raw.Page,
	}
	return nil
}

package state

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestStrokeWireFormat(t *testing.T) {
	a := NewStroke([]Point{{X: 0.25, Y: 0.5}}, "#ff0000", 4, true, 3)
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	js := string(data)
	for _, want := range []string{`"kind":"stroke"`, `"isEraser":true`, `"page":3`, `"width":4`} {
		if !strings.Contains(js, want) {
			t.Errorf("wire form %s missing %s", js, want)
		}
	}
	if strings.Contains(js, `"text"`) {
		t.Errorf("stroke wire form leaks text fields: %s", js)
	}

	var back Annotation
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Kind != KindStroke || !back.IsEraser || back.Page != 3 || len(back.Points) != 1 {
		t.Fatalf("round trip lost fields: %+v", back)
	}
}

func TestTextWireFormatKeepsZeroAnchor(t *testing.T) {
	a := NewText("corner", 0, 0, "#0000ff", 0)
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	js := string(data)
	// An anchor at the origin is a real position and must stay on the wire.
	if !strings.Contains(js, `"x":0`) || !strings.Contains(js, `"y":0`) {
		t.Errorf("zero anchor dropped from wire form: %s", js)
	}
	// Unpaginated content omits the page tag entirely.
	if strings.Contains(js, `"page"`) {
		t.Errorf("page tag present for unpaginated annotation: %s", js)
	}
}

func TestUnmarshalRejectsUnknownKind(t *testing.T) {
	var a Annotation
	err := json.Unmarshal([]byte(`{"kind":"scribble"}`), &a)
	if err == nil {
		t.Fatal("unknown kind accepted")
	}
}

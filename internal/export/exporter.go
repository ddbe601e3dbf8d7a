// Package export flattens content and annotations into standalone
// artifacts: one compressed image for single-image content, one assembled
// multi-page PDF for paginated content. Exporting is a pure read of the
// annotation sequence; it never mutates it.
package export

import (
	"errors"
	"fmt"
	"sync/atomic"

	"markpad/internal/content"
	"markpad/internal/state"
)

// ErrBusy reports that an export is already in flight. Overlapping
// requests are rejected rather than queued.
var ErrBusy = errors.New("export already in progress")

// Artifact is the encoded export result handed to the collaborator.
type Artifact struct {
	Name string
	MIME string
	Data []byte
}

// Exporter serializes export runs with a busy flag.
type Exporter struct {
	busy atomic.Bool
}

// Busy reports whether an export is currently running.
func (e *Exporter) Busy() bool { return e.busy.Load() }

// Run produces the export artifact for the current state. For images the
// output raster matches the live overlay's pixel dimensions; for PDFs
// every page is re-rendered fresh from the source, independent of
// whichever page is on screen.
func (e *Exporter) Run(src content.Source, typ content.Type, anns []state.Annotation, page, overlayW, overlayH int) (Artifact, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return Artifact{}, ErrBusy
	}
	defer e.busy.Store(false)

	switch typ {
	case content.TypePDF:
		return exportPDF(src, anns)
	case content.TypeImage:
		return exportImage(src, anns, page, overlayW, overlayH)
	default:
		return Artifact{}, fmt.Errorf("export: unknown content type %q", typ)
	}
}

func pageSubset(anns []state.Annotation, page int) []state.Annotation {
	var out []state.Annotation
	for _, a := range anns {
		if a.Page == page {
			out = append(out, a)
		}
	}
	return out
}

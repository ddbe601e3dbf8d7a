package content

import (
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// documentSource rasterizes PDF pages through MuPDF. fitz documents are
// not safe for concurrent page renders, so a mutex serializes them; the
// loader only issues one decode at a time anyway, but exports render pages
// independently of whatever the editor is showing.
type documentSource struct {
	mu  sync.Mutex
	doc *fitz.Document
}

func newDocumentSource(data []byte) (Source, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	return &documentSource{doc: doc}, nil
}

func (s *documentSource) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.NumPage()
}

func (s *documentSource) RenderPage(page int) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 || page > s.doc.NumPage() {
		return nil, fmt.Errorf("document has no page %d", page)
	}
	img, err := s.doc.ImageDPI(page-1, RenderDPI)
	if err != nil {
		return nil, fmt.Errorf("rasterize page %d: %w", page, err)
	}
	return img, nil
}

func (s *documentSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Close()
}

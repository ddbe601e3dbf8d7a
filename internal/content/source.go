// Package content resolves displayable rasters from image files or
// multi-page PDF documents, locally or over http(s).
package content

import (
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Type discriminates the two content flavors the editor can open.
type Type string

const (
	TypeImage Type = "image"
	TypePDF   Type = "pdf"
)

// RenderDPI is the resolution pages are rasterized at: 1.5x the 72 DPI
// native page size, so exports stay sharper than the screen without
// ballooning decode time or memory.
const RenderDPI = 108

// Source resolves a raster surface for a requested page. Pages are
// 1-indexed; single images have exactly one page.
type Source interface {
	PageCount() int
	RenderPage(page int) (image.Image, error)
	Close() error
}

// DetectType guesses the content type from the reference's extension,
// defaulting to image. URL references are judged by their path alone, so
// a query string or fragment does not hide the extension.
func DetectType(ref string) Type {
	name := ref
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		name = u.Path
	}
	if strings.EqualFold(filepath.Ext(strings.TrimSuffix(name, "/")), ".pdf") {
		return TypePDF
	}
	return TypeImage
}

// Open resolves a content reference into a Source of the given type.
func Open(ref string, typ Type) (Source, error) {
	data, err := fetch(ref)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ref, err)
	}
	switch typ {
	case TypePDF:
		return newDocumentSource(data)
	case TypeImage:
		return newImageSource(data)
	default:
		return nil, fmt.Errorf("open %s: unknown content type %q", ref, typ)
	}
}

// fetch reads the raw bytes behind a reference: a http(s) URL or a local
// file path.
func fetch(ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		resp, err := http.Get(ref)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(ref)
}

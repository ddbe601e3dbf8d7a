package content

import (
	"image"
	"log"
	"sync"
	"sync/atomic"
)

// Loader owns asynchronous page decodes for the editing surface. Page
// navigation can outrun a slow decode, so every request bumps a generation
// counter and a finished decode is dropped unless its generation is still
// current, so an old page's raster can never overwrite a newer request's.
type Loader struct {
	src Source
	gen atomic.Uint64
	mu  sync.Mutex // serializes deliveries

	// OnLoaded delivers the decoded raster for a page request that is
	// still current. OnError reports a failed decode (also only when still
	// current). Both are invoked from the decode goroutine, one delivery
	// at a time.
	OnLoaded func(page int, raster image.Image)
	OnError  func(page int, err error)
}

func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

// Load requests page's raster asynchronously, superseding any outstanding
// request.
func (l *Loader) Load(page int) {
	g := l.gen.Add(1)
	go func() {
		img, err := l.src.RenderPage(page)

		// The generation re-check happens under the delivery mutex, so a
		// superseded decode can never deliver after the request that
		// replaced it.
		l.mu.Lock()
		defer l.mu.Unlock()
		if g != l.gen.Load() {
			log.Printf("[loader] page %d superseded, dropping result", page)
			return
		}
		if err != nil {
			log.Printf("[loader] page %d failed: %v", page, err)
			if l.OnError != nil {
				l.OnError(page, err)
			}
			return
		}
		if l.OnLoaded != nil {
			l.OnLoaded(page, img)
		}
	}()
}

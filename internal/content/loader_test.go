package content

import (
	"errors"
	"image"
	"sync"
	"testing"
	"time"
)

// fakeSource blocks each RenderPage call until the matching gate channel
// is closed, so tests control completion order.
type fakeSource struct {
	pages int
	gates map[int]chan struct{}
	fail  map[int]bool
}

func newFakeSource(pages int) *fakeSource {
	f := &fakeSource{pages: pages, gates: make(map[int]chan struct{}), fail: make(map[int]bool)}
	for i := 1; i <= pages; i++ {
		f.gates[i] = make(chan struct{})
	}
	return f
}

func (f *fakeSource) PageCount() int { return f.pages }

func (f *fakeSource) RenderPage(page int) (image.Image, error) {
	if gate, ok := f.gates[page]; ok {
		<-gate
	}
	if f.fail[page] {
		return nil, errors.New("decode failed")
	}
	return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
}

func (f *fakeSource) Close() error { return nil }

type recorder struct {
	mu     sync.Mutex
	loaded []int
	errs   []int
}

func (r *recorder) wire(l *Loader) {
	l.OnLoaded = func(page int, _ image.Image) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.loaded = append(r.loaded, page)
	}
	l.OnError = func(page int, _ error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.errs = append(r.errs, page)
	}
}

func (r *recorder) snapshot() ([]int, []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.loaded...), append([]int(nil), r.errs...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestStaleDecodeIsDiscarded(t *testing.T) {
	src := newFakeSource(3)
	l := NewLoader(src)
	rec := &recorder{}
	rec.wire(l)

	l.Load(1) // stays blocked until released below
	l.Load(2) // supersedes page 1

	close(src.gates[2])
	waitFor(t, func() bool { loaded, _ := rec.snapshot(); return len(loaded) == 1 })

	// Page 1 finishes after being superseded; its raster must be dropped.
	close(src.gates[1])
	time.Sleep(50 * time.Millisecond)

	loaded, errs := rec.snapshot()
	if len(loaded) != 1 || loaded[0] != 2 {
		t.Fatalf("loaded pages = %v, want [2]", loaded)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected errors for pages %v", errs)
	}
}

// A decode that passed the freshness check can still be mid-delivery when
// a newer page finishes; the newer delivery must wait behind it so the
// last raster applied is always the newest request's.
func TestNewerDeliveryWaitsForInFlightDelivery(t *testing.T) {
	src := newFakeSource(2)
	l := NewLoader(src)

	entered := make(chan int, 2)
	release := make(chan struct{})
	var mu sync.Mutex
	var order []int
	l.OnLoaded = func(page int, _ image.Image) {
		entered <- page
		<-release
		mu.Lock()
		order = append(order, page)
		mu.Unlock()
	}

	l.Load(1)
	close(src.gates[1])
	if got := <-entered; got != 1 {
		t.Fatalf("first delivery = page %d, want 1", got)
	}

	// Page 1's delivery is in flight; page 2's must queue behind it.
	l.Load(2)
	close(src.gates[2])
	time.Sleep(20 * time.Millisecond)
	select {
	case got := <-entered:
		t.Fatalf("page %d delivered while page 1 was still delivering", got)
	default:
	}

	close(release)
	if got := <-entered; got != 2 {
		t.Fatalf("second delivery = page %d, want 2", got)
	}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	})
	mu.Lock()
	defer mu.Unlock()
	if order[0] != 1 || order[1] != 2 {
		t.Fatalf("delivery order = %v, want [1 2]", order)
	}
}

func TestDecodeFailureReported(t *testing.T) {
	src := newFakeSource(1)
	src.fail[1] = true
	l := NewLoader(src)
	rec := &recorder{}
	rec.wire(l)

	l.Load(1)
	close(src.gates[1])
	waitFor(t, func() bool { _, errs := rec.snapshot(); return len(errs) == 1 })

	loaded, _ := rec.snapshot()
	if len(loaded) != 0 {
		t.Fatalf("loaded pages = %v, want none", loaded)
	}
}

func TestDetectType(t *testing.T) {
	cases := map[string]Type{
		"scan.PDF":                       TypePDF,
		"https://host/files/notes.pdf":   TypePDF,
		"https://host/scan.pdf?token=x":  TypePDF,
		"https://host/doc.pdf#page=2":    TypePDF,
		"https://host/photo.png":         TypeImage,
		"https://host/render?format=pdf": TypeImage,
		"diagram.jpeg":                   TypeImage,
	}
	for ref, want := range cases {
		if got := DetectType(ref); got != want {
			t.Errorf("DetectType(%q) = %v, want %v", ref, got, want)
		}
	}
}

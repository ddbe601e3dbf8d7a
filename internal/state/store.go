package state

import "sync"

// Store is the insertion-ordered annotation sequence for one editing
// session. The editor is the only mutator; every mutation replaces the
// sequence wholesale and pushes a fresh copy through OnChange, so the
// collaborator holding the authoritative copy never observes a partial
// edit.
type Store struct {
	mu   sync.RWMutex
	anns []Annotation

	// OnChange receives the full updated sequence after every mutation.
	OnChange func([]Annotation)
}

// NewStore seeds the store with the collaborator-supplied initial sequence.
// The slice is copied; the caller keeps ownership of its argument.
func NewStore(initial []Annotation) *Store {
	s := &Store{}
	s.anns = append(s.anns, initial...)
	return s
}

// Append adds one annotation to the end of the sequence. Strokes with no
// points and text labels with no text are rejected and never stored.
func (s *Store) Append(a Annotation) bool {
	if a.Kind == KindStroke && len(a.Points) == 0 {
		return false
	}
	if a.Kind == KindText && a.Text == "" {
		return false
	}
	s.mu.Lock()
	s.anns = append(s.anns, a)
	snapshot := s.copyLocked()
	s.mu.Unlock()
	s.emit(snapshot)
	return true
}

// UndoPage removes the most recently appended annotation whose page matches.
// If the page has no annotations the store is unchanged and no notification
// fires.
func (s *Store) UndoPage(page int) bool {
	s.mu.Lock()
	idx := -1
	for i := len(s.anns) - 1; i >= 0; i-- {
		if s.anns[i].Page == page {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.anns = append(s.anns[:idx], s.anns[idx+1:]...)
	snapshot := s.copyLocked()
	s.mu.Unlock()
	s.emit(snapshot)
	return true
}

// ClearPage removes all annotations tagged with the given page, leaving
// annotations on every other page untouched.
func (s *Store) ClearPage(page int) bool {
	s.mu.Lock()
	kept := s.anns[:0:0]
	for _, a := range s.anns {
		if a.Page != page {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(s.anns) {
		s.mu.Unlock()
		return false
	}
	s.anns = kept
	snapshot := s.copyLocked()
	s.mu.Unlock()
	s.emit(snapshot)
	return true
}

// Replace swaps in a collaborator-supplied sequence, e.g. when reloading.
func (s *Store) Replace(anns []Annotation) {
	s.mu.Lock()
	s.anns = append(s.anns[:0:0], anns...)
	snapshot := s.copyLocked()
	s.mu.Unlock()
	s.emit(snapshot)
}

// ForPage returns a copy of the annotations for one page, in store order.
func (s *Store) ForPage(page int) []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Annotation
	for _, a := range s.anns {
		if a.Page == page {
			out = append(out, a)
		}
	}
	return out
}

// All returns a copy of the full sequence in store order.
func (s *Store) All() []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Len reports the number of stored annotations across all pages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.anns)
}

func (s *Store) copyLocked() []Annotation {
	return append([]Annotation(nil), s.anns...)
}

func (s *Store) emit(snapshot []Annotation) {
	if s.OnChange != nil {
		s.OnChange(snapshot)
	}
}

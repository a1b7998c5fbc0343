package tasks

import "slices"

// urlSet is an insertion-ordered map keyed by canonical URL.
type urlSet[T any] struct {
	order []string
	items map[string]T
}

func newURLSet[T any]() *urlSet[T] {
	return &urlSet[T]{order: []string{}, items: map[string]T{}}
}

func (s *urlSet[T]) Has(url string) bool {
	_, ok := s.items[url]
	return ok
}

// Put stores v under url and reports whether url was new. An existing entry keeps its position and value.
func (s *urlSet[T]) Put(url string, v T) bool {
	if s.Has(url) {
		return false
	}
	s.items[url] = v
	s.order = append(s.order, url)
	return true
}

// Remove deletes url and reports whether it was present.
func (s *urlSet[T]) Remove(url string) bool {
	if !s.Has(url) {
		return false
	}
	delete(s.items, url)
	if i := slices.Index(s.order, url); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return true
}

func (s *urlSet[T]) Len() int { return len(s.order) }

// Keys returns a copy of the URLs in insertion order.
func (s *urlSet[T]) Keys() []string {
	return append([]string{}, s.order...)
}

// Values returns the stored values in insertion order.
func (s *urlSet[T]) Values() []T {
	out := make([]T, 0, len(s.order))
	for _, url := range s.order {
		out = append(out, s.items[url])
	}
	return out
}

func (s *urlSet[T]) Clear() {
	s.order = []string{}
	s.items = map[string]T{}
}

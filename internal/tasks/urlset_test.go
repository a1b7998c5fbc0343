package tasks

import (
	"slices"
	"testing"
)

func TestURLSet(t *testing.T) {
	t.Run("keeps insertion order", func(t *testing.T) {
		s := newURLSet[int]()
		s.Put("c", 3)
		s.Put("a", 1)
		s.Put("b", 2)

		if got := s.Keys(); !slices.Equal(got, []string{"c", "a", "b"}) {
			t.Errorf("got keys %v", got)
		}
		if got := s.Values(); !slices.Equal(got, []int{3, 1, 2}) {
			t.Errorf("got values %v", got)
		}
	})

	t.Run("put is idempotent", func(t *testing.T) {
		s := newURLSet[int]()
		if !s.Put("a", 1) {
			t.Error("first put should report new")
		}
		if s.Put("a", 2) {
			t.Error("second put should report existing")
		}
		if got := s.Values(); !slices.Equal(got, []int{1}) {
			t.Errorf("existing value should be kept, got %v", got)
		}
	})

	t.Run("remove and clear", func(t *testing.T) {
		s := newURLSet[struct{}]()
		s.Put("a", struct{}{})
		s.Put("b", struct{}{})

		if !s.Remove("a") || s.Remove("a") {
			t.Error("remove should report presence once")
		}
		if s.Has("a") || !s.Has("b") || s.Len() != 1 {
			t.Errorf("unexpected state %v", s.Keys())
		}

		s.Clear()
		if s.Len() != 0 || len(s.Keys()) != 0 {
			t.Error("clear should empty the set")
		}
	})
}

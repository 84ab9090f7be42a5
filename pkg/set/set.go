// Package set is a minimal generic set, used where ordering of the output must not depend on map iteration.
package set

import (
	"sort"
)

type Set[T comparable] map[T]struct{}

func SetOf[T comparable](vs ...T) Set[T] {
	s := make(Set[T], len(vs))
	s.Add(vs...)
	return s
}

func (s Set[T]) Add(vs ...T) {
	for _, v := range vs {
		s[v] = struct{}{}
	}
}

func (s Set[T]) Contains(v T) bool {
	_, ok := s[v]
	return ok
}

func (s Set[T]) Len() int {
	return len(s)
}

// Sorted returns the elements of the set ordered by less. An empty set returns nil.
func (s Set[T]) Sorted(less func(a, b T) bool) []T {
	if len(s) == 0 {
		return nil
	}
	slice := make([]T, 0, len(s))
	for k := range s {
		slice = append(slice, k)
	}
	sort.Slice(slice, func(i, j int) bool { return less(slice[i], slice[j]) })
	return slice
}

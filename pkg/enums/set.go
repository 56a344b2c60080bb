// Package enums holds the closed string vocabularies stored in the ledger.
package enums

import (
	"fmt"
	"slices"
)

// set is a closed vocabulary for one enum type.
type set[T ~string] struct {
	label   string
	members []T
}

func newSet[T ~string](label string, members ...T) set[T] {
	return set[T]{label: label, members: members}
}

func (s set[T]) has(v T) bool {
	return slices.Contains(s.members, v)
}

func (s set[T]) parse(raw string) (T, error) {
	if v := T(raw); s.has(v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", s.label, raw)
}

package database

import (
	"encoding/json"
	"fmt"
	"slices"
)

// IntSet is a sorted set of unique, nonnegative int64s. It stands in for a
// relational join table: page link sets and posting position sets are both
// IntSets serialized as JSON arrays.
//
// MakeIntSet is the only constructor that repairs its input. Data crossing a
// trust boundary (the store, a caller-supplied PageData) is checked with
// Validate instead, so a malformed set fails the operation rather than being
// silently reordered or deduplicated.
type IntSet []int64

// MakeIntSet builds a set from arbitrary values: sorted, deduplicated.
func MakeIntSet(vals []int64) IntSet {
	s := slices.Clone(vals)
	slices.Sort(s)
	return slices.Compact(s)
}

// ParseIntSet decodes a JSON array and validates it.
func ParseIntSet(text string) (IntSet, error) {
	var vals []int64
	if err := json.Unmarshal([]byte(text), &vals); err != nil {
		return nil, fmt.Errorf("malformed set %q: %w", text, err)
	}
	s := IntSet(vals)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate reports the first well-formedness violation: a negative element,
// a duplicate, or a pair out of ascending order. It never repairs.
func (s IntSet) Validate() error {
	for i, v := range s {
		if v < 0 {
			return fmt.Errorf("negative element %d at index %d", v, i)
		}
		if i > 0 {
			if s[i-1] == v {
				return fmt.Errorf("duplicate element %d at index %d", v, i)
			}
			if s[i-1] > v {
				return fmt.Errorf("elements out of order: %d before %d", s[i-1], v)
			}
		}
	}
	return nil
}

func (s IntSet) Contains(v int64) bool {
	_, found := slices.BinarySearch(s, v)
	return found
}

func (s IntSet) Len() int {
	return len(s)
}

// Encode serializes the set as a JSON array. The empty set encodes as "[]",
// never "null", so stored columns always hold a well-formed array.
func (s IntSet) Encode() string {
	if len(s) == 0 {
		return "[]"
	}
	b, err := json.Marshal([]int64(s))
	if err != nil {
		// []int64 cannot fail to marshal
		panic(err)
	}
	return string(b)
}

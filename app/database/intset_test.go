package database

import (
	"reflect"
	"testing"
)

func TestMakeIntSet(t *testing.T) {
	tests := []struct {
		input    []int64
		expected IntSet
	}{
		{[]int64{3, 1, 2}, IntSet{1, 2, 3}},
		{[]int64{5, 5, 5}, IntSet{5}},
		{[]int64{2, 1, 2, 1}, IntSet{1, 2}},
	}

	for _, test := range tests {
		result := MakeIntSet(test.input)
		if !reflect.DeepEqual(result, test.expected) {
			t.Fatalf("incorrect MakeIntSet result for %v - expected %v, got %v", test.input, test.expected, result)
		}
		if err := result.Validate(); err != nil {
			t.Fatalf("MakeIntSet produced an invalid set %v: %v", result, err)
		}
	}

	if MakeIntSet(nil).Len() != 0 {
		t.Fatalf("expected an empty set from nil input")
	}
}

func TestValidateRejectsMalformedSets(t *testing.T) {
	tests := []IntSet{
		{2, 1},       // unsorted
		{1, 1},       // duplicate
		{-1, 0},      // negative
		{0, 5, 5, 9}, // duplicate in the middle
	}

	for _, set := range tests {
		if err := set.Validate(); err == nil {
			t.Fatalf("expected %v to fail validation", set)
		}
	}

	if err := (IntSet{}).Validate(); err != nil {
		t.Fatalf("empty set failed validation: %v", err)
	}
	if err := (IntSet{0, 1, 7}).Validate(); err != nil {
		t.Fatalf("sorted unique set failed validation: %v", err)
	}
}

func TestIntSetEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		set     IntSet
		encoded string
	}{
		{IntSet{}, "[]"},
		{nil, "[]"},
		{IntSet{0, 3, 12}, "[0,3,12]"},
	}

	for _, test := range tests {
		encoded := test.set.Encode()
		if encoded != test.encoded {
			t.Fatalf("incorrect encoding of %v - expected %q, got %q", test.set, test.encoded, encoded)
		}

		decoded, err := ParseIntSet(encoded)
		if err != nil {
			t.Fatalf("failed to parse %q: %v", encoded, err)
		}
		if decoded.Len() != test.set.Len() {
			t.Fatalf("round trip of %v changed length: %v", test.set, decoded)
		}
	}
}

func TestParseIntSetRejectsMalformedSets(t *testing.T) {
	for _, text := range []string{"[2,1]", "[1,1]", "[-4]", "not json"} {
		if _, err := ParseIntSet(text); err == nil {
			t.Fatalf("expected %q to fail parsing", text)
		}
	}
}

func TestIntSetContains(t *testing.T) {
	set := IntSet{1, 4, 9}

	for _, v := range []int64{1, 4, 9} {
		if !set.Contains(v) {
			t.Fatalf("expected %v to contain %v", set, v)
		}
	}
	for _, v := range []int64{0, 2, 10} {
		if set.Contains(v) {
			t.Fatalf("expected %v not to contain %v", set, v)
		}
	}

	var empty IntSet
	if empty.Contains(0) {
		t.Fatalf("empty set should contain nothing")
	}
}

func TestValidateNeverRepairs(t *testing.T) {
	set := IntSet{9, 1}
	_ = set.Validate()

	if !reflect.DeepEqual(set, IntSet{9, 1}) {
		t.Fatalf("Validate modified the set: %v", set)
	}
	if set.Validate() == nil {
		t.Fatalf("expected unsorted set to stay invalid")
	}
}

package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"42", 0, 42},
		{"", 10, 10},
		{"x", 5, 5},
		{"-3", 1, -3},
		{"3.5", 7, 7},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.in, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.in, tc.def, got, tc.want)
		}
	}
}

func TestParseID(t *testing.T) {
	cases := []struct {
		in   string
		id   uint
		ok   bool
	}{
		{"7", 7, true},
		{"1", 1, true},
		{"0", 0, false}, // IDs start at 1
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"7.5", 0, false},
		{"99999999999999999999", 0, false}, // overflow
	}
	for _, tc := range cases {
		id, ok := ParseID(tc.in)
		if id != tc.id || ok != tc.ok {
			t.Fatalf("ParseID(%q) = (%d, %v); want (%d, %v)", tc.in, id, ok, tc.id, tc.ok)
		}
	}
}

package language

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		raw  string
		want Code
		ok   bool
	}{
		{"", English, true},
		{"hi", Hindi, true},
		{"Hindi", Hindi, true},
		{" TELUGU ", Telugu, true},
		{"en", English, true},
		{"fr", "", false},
	}

	for _, tc := range cases {
		got, ok := Parse(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Parse(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestOptionsOrderAndName(t *testing.T) {
	opts := Options()
	if len(opts) != 3 || opts[0].Code != English || opts[1].Code != Telugu || opts[2].Code != Hindi {
		t.Fatalf("unexpected options %+v", opts)
	}
	if Hindi.Name() != "Hindi" {
		t.Fatalf("unexpected name %q", Hindi.Name())
	}
	if Code("xx").Name() != "xx" {
		t.Fatal("unknown code should render as itself")
	}
}

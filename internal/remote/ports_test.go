package remote

import "testing"

func TestValidEndpoint(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"https://script.google.com/macros/s/abc/exec", true},
		{"http://localhost:9090/sync", true},
		{"", false},
		{"script.google.com/exec", false},
		{"ftp://example.com", false},
		{"https://", false},
		{"   ", false},
	}
	for _, tc := range cases {
		if got := ValidEndpoint(tc.in); got != tc.ok {
			t.Errorf("ValidEndpoint(%q) = %v, want %v", tc.in, got, tc.ok)
		}
	}
}

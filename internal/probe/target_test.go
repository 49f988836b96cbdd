package probe

import (
	"reflect"
	"testing"
)

func TestNormalizeTargets(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"http://example.com", []string{"example.com"}},
		{"http://a.com; b.com; http://c.com", []string{"a.com", "b.com", "c.com"}},
		{"http://a.com; http://a.com", []string{"a.com", "a.com"}},
		{"http://a.com/path", []string{"a.com/path"}},
		{"http://http://a.com", []string{"http://a.com"}},
		{"xhttp://a.com", []string{"a.com"}},
		{"https://a.com", []string{"https://a.com"}},
		{"a.com;b.com", []string{"a.com;b.com"}},
	}
	for _, c := range cases {
		if got := NormalizeTargets(c.in); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("NormalizeTargets(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

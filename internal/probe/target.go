package probe

import "strings"

const (
	targetSeparator = "; "
	schemePrefix    = "http://"
)

// NormalizeTargets splits a "; "-separated URL list into bare hosts.
// Everything up to and including the first "http://" of a segment is
// dropped; later occurrences are left alone. Order and duplicates are
// preserved and no host validation happens here.
func NormalizeTargets(raw string) []string {
	parts := strings.Split(raw, targetSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if i := strings.Index(p, schemePrefix); i != -1 {
			p = p[i+len(schemePrefix):]
		}
		out = append(out, p)
	}
	return out
}

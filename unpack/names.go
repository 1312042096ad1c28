package unpack

import (
	"fmt"
	"path"
	"strings"
)

// nameAllocator assigns a distinct file name to every extracted entry.
// The n-th repeat of a name (counting from 1) becomes "STEM (n).EXT".
type nameAllocator struct {
	seen map[string]int
	used map[string]bool
}

func newNameAllocator() *nameAllocator {
	return &nameAllocator{seen: map[string]int{}, used: map[string]bool{}}
}

// allocate returns the file name for the entry at index.
// Names are compared case-insensitively so the result is safe on
// case-insensitive file systems.
func (a *nameAllocator) allocate(name string, index int) string {
	base := sanitizeName(name, index)
	n := a.seen[base]
	candidate := base
	if n > 0 {
		candidate = withCopySuffix(base, n)
	}
	for a.used[strings.ToLower(candidate)] {
		n++
		candidate = withCopySuffix(base, n)
	}
	a.seen[base] = n + 1
	a.used[strings.ToLower(candidate)] = true
	return candidate
}

func withCopySuffix(name string, n int) string {
	ext := path.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
}

// sanitizeName turns an entry name into a single path element.
func sanitizeName(name string, index int) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '_'
		case r < 0x20:
			return -1
		default:
			return r
		}
	}, name)
	clean = strings.TrimSpace(clean)
	if clean == "" || clean == "." || clean == ".." || clean == ManifestName {
		return fmt.Sprintf("_entry%05d", index)
	}
	return clean
}

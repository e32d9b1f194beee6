// Package strings provides the small string helpers the planner shares
package strings

import (
	std "strings"

	"github.com/maruel/natural"
)

// IfEmpty returns def if in is empty, otherwise in
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// MustString returns s, panicking with name when s is blank
func MustString(s string, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}

// MustPrefix normalizes a mount path to one leading slash and no trailing slash
// it panics on an empty or root path
func MustPrefix(s string) string {
	s = "/" + std.Trim(std.TrimSpace(s), " /")
	if s == "/" {
		panic("root path is required")
	}
	return s
}

// NaturalLess orders names with digit runs compared by value
// so duty "00018-2" sorts before "00018-10"
func NaturalLess(a, b string) bool { return natural.Less(a, b) }

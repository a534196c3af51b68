// Package names holds the identifier grammar shared by namespaces, local
// names, field names and enum symbols. This package is internal and not part
// of the public API.
package names

import "strings"

// IsIdentifier reports whether s matches [A-Za-z_][A-Za-z0-9_]*.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// InvalidSegment returns the first dot-separated segment of ns that is not an
// identifier. ok is false when ns is empty or a segment fails the grammar.
func InvalidSegment(ns string) (seg string, ok bool) {
	if ns == "" {
		return "", false
	}
	for _, s := range strings.Split(ns, ".") {
		if !IsIdentifier(s) {
			return s, false
		}
	}
	return "", true
}

// IsNamespace reports whether ns is a non-empty dot-separated identifier path.
func IsNamespace(ns string) bool {
	_, ok := InvalidSegment(ns)
	return ok
}

// Join concatenates namespace and local name with '.', dropping the dot when
// the namespace is empty.
func Join(ns, local string) string {
	if ns == "" {
		return local
	}
	return ns + "." + local
}

// Last returns the last dot-separated segment of s.
func Last(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Sanitize maps an arbitrary scope token (for example a Go import path
// element such as "go-json" or "v2") onto the identifier grammar. Invalid
// characters become '_' and a leading digit gets a '_' prefix. An empty
// input yields "_".
func Sanitize(s string) string {
	if s == "" {
		return "_"
	}
	b := make([]byte, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
			b = append(b, c)
		case c >= '0' && c <= '9':
			if i == 0 {
				b = append(b, '_')
			}
			b = append(b, c)
		default:
			b = append(b, '_')
		}
	}
	return string(b)
}

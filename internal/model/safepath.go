package model

import (
	"fmt"
	"path"
	"strings"
)

// SafePath is a validated, slash-separated, relative path that is known not
// to escape its scope root: no "..", no absolute prefix, no Windows drive
// or rooted form.
type SafePath struct {
	rel string
}

// NewSafePath validates rel and returns a SafePath, or a PathSafetyError-
// shaped error (see internal/calvinerr) described in plain text here so
// callers can wrap it with the path that triggered it.
func NewSafePath(rel string) (SafePath, error) {
	cleaned := path.Clean(filepathToSlash(rel))

	if cleaned == "." || cleaned == "" {
		return SafePath{}, fmt.Errorf("path is empty")
	}
	if path.IsAbs(cleaned) {
		return SafePath{}, fmt.Errorf("path %q is absolute", rel)
	}
	if hasWindowsDrive(rel) {
		return SafePath{}, fmt.Errorf("path %q carries a Windows drive prefix", rel)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return SafePath{}, fmt.Errorf("path %q escapes its root via '..'", rel)
	}
	return SafePath{rel: cleaned}, nil
}

// MustSafePath panics if rel is unsafe. Reserved for compile-time-known
// adapter-internal paths, never for user- or asset-supplied input.
func MustSafePath(rel string) SafePath {
	p, err := NewSafePath(rel)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the forward-slash relative path.
func (p SafePath) String() string {
	return p.rel
}

// Join appends additional slash-separated segments and re-validates the
// result. The segments are also validated on their own, so segments that
// climb above p via ".." are rejected even when the joined path stays
// relative.
func (p SafePath) Join(segments ...string) (SafePath, error) {
	if len(segments) > 0 {
		if _, err := NewSafePath(path.Join(segments...)); err != nil {
			return SafePath{}, err
		}
	}
	return NewSafePath(path.Join(append([]string{p.rel}, segments...)...))
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func hasWindowsDrive(p string) bool {
	return len(p) >= 2 && p[1] == ':' && ((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

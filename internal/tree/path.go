package tree

import (
	"fmt"
	"strings"
)

// Separator joins segments in the dotted form of a path.
const Separator = "."

// Path addresses a node from the root of a document.
// The empty path addresses the root itself.
type Path []string

// P builds a path from segments.
func P(segments ...string) Path {
	if len(segments) == 0 {
		return nil
	}
	return Path(append([]string(nil), segments...))
}

// ParsePath parses a dotted path such as "procs.k1.body".
// The empty string is the root path. Empty segments are rejected.
//
// The dotted form exists for diagnostics, scripting and the command line;
// segments containing the separator cannot be expressed in it.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, nil
	}
	segs := strings.Split(s, Separator)
	for i, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("%w: empty segment %d in %q", ErrInvalidPath, i, s)
		}
	}
	return Path(segs), nil
}

// MustParsePath is like ParsePath but panics on error.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the dotted form of the path.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// IsRoot reports whether the path addresses the root.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading run of whole segments of p.
// "items" is a prefix of "items.k1" but not of "items2".
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Join returns a new path with segments appended.
// The receiver is never aliased by the result.
func (p Path) Join(segments ...string) Path {
	if len(p)+len(segments) == 0 {
		return nil
	}
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// Concat returns p followed by q.
func (p Path) Concat(q Path) Path {
	return p.Join(q...)
}

// Parent returns the path with the last segment removed.
// The parent of the root is the root.
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return nil
	}
	return p[:len(p)-1 : len(p)-1]
}

// Base returns the last segment, or "" for the root.
func (p Path) Base() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Clone returns a copy of the path that shares no storage with p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	return append(Path(nil), p...)
}

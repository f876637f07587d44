package store

import (
	"fmt"
	"strings"
)

type placementKind int

const (
	placeTail placementKind = iota
	placeHead
	placeBefore
	placeAfter
)

// Placement selects where Insert puts a new element.
// The zero value appends.
type Placement struct {
	kind   placementKind
	anchor string
}

// Tail appends.
func Tail() Placement {
	return Placement{kind: placeTail}
}

// Head prepends.
func Head() Placement {
	return Placement{kind: placeHead}
}

// Before inserts immediately before the element keyed id.
// When id is not in the array the element is appended instead.
func Before(id string) Placement {
	return Placement{kind: placeBefore, anchor: id}
}

// After inserts immediately after the element keyed id.
// When id is not in the array the element is prepended instead.
func After(id string) Placement {
	return Placement{kind: placeAfter, anchor: id}
}

// String returns the placement in the form accepted by ParsePlacement.
func (p Placement) String() string {
	switch p.kind {
	case placeTail:
		return "tail"
	case placeHead:
		return "head"
	case placeBefore:
		return "before:" + p.anchor
	case placeAfter:
		return "after:" + p.anchor
	default:
		return fmt.Sprintf("placement(%d)", int(p.kind))
	}
}

// Anchor returns the before/after target, or "".
func (p Placement) Anchor() string {
	return p.anchor
}

func (p Placement) validate() error {
	switch p.kind {
	case placeTail, placeHead:
		return nil
	case placeBefore, placeAfter:
		if p.anchor == "" {
			return &PlacementError{Input: p.String(), Err: ErrInvalidPlacement}
		}
		return nil
	default:
		return &PlacementError{Input: p.String(), Err: ErrInvalidPlacement}
	}
}

// ParsePlacement parses "", "tail", "head", "before:<id>" or "after:<id>".
// Anything else is an error.
func ParsePlacement(s string) (Placement, error) {
	switch s {
	case "", "tail":
		return Tail(), nil
	case "head":
		return Head(), nil
	}

	kind, anchor, ok := strings.Cut(s, ":")
	if !ok || anchor == "" {
		return Placement{}, &PlacementError{Input: s, Err: ErrInvalidPlacement}
	}
	switch kind {
	case "before":
		return Before(anchor), nil
	case "after":
		return After(anchor), nil
	default:
		return Placement{}, &PlacementError{Input: s, Err: ErrInvalidPlacement}
	}
}

// place returns arr with elem inserted according to p.
// found reports whether a before/after anchor was present.
// arr is never modified.
func place(arr []any, elem any, p Placement, indexOf func(string) int) (out []any, found bool) {
	at := len(arr)
	found = true

	switch p.kind {
	case placeHead:
		at = 0
	case placeBefore:
		if idx := indexOf(p.anchor); idx >= 0 {
			at = idx
		} else {
			found = false
		}
	case placeAfter:
		if idx := indexOf(p.anchor); idx >= 0 {
			at = idx + 1
		} else {
			at = 0
			found = false
		}
	}

	out = make([]any, 0, len(arr)+1)
	out = append(out, arr[:at]...)
	out = append(out, elem)
	out = append(out, arr[at:]...)
	return out, found
}

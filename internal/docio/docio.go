// Package docio reads and writes document trees as JSON.
package docio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"golang.org/x/term"

	"github.com/dshills/scriptree/internal/tree"
)

// Errors returned by document I/O.
var (
	// ErrInvalidJSON indicates the input is not well-formed JSON.
	ErrInvalidJSON = errors.New("invalid JSON")

	// ErrNotFound indicates a queried path does not resolve.
	ErrNotFound = errors.New("path not found")

	// ErrUnknownColorMode indicates an unrecognized color mode name.
	ErrUnknownColorMode = errors.New("unknown color mode")
)

// Format selects how Encode lays out its output.
type Format int

const (
	// Pretty indents nested values.
	Pretty Format = iota
	// Compact strips all insignificant whitespace.
	Compact
	// Color is Pretty with ANSI terminal colors.
	Color
)

// Decode parses a JSON document and validates its keyed arrays.
// Numbers decode as float64.
func Decode(data []byte) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, syntaxError(data)
	}

	v := gjson.ParseBytes(data).Value()
	if err := tree.Validate(v); err != nil {
		return nil, err
	}
	return v, nil
}

// syntaxError locates the first syntax error for the message.
func syntaxError(data []byte) error {
	var v any
	var serr *json.SyntaxError
	if err := json.Unmarshal(data, &v); errors.As(err, &serr) {
		return fmt.Errorf("%w at offset %d: %s", ErrInvalidJSON, serr.Offset, serr.Error())
	}
	return ErrInvalidJSON
}

// ReadFile reads and decodes the document at path.
func ReadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", path, err)
	}
	v, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", path, err)
	}
	return v, nil
}

// Encode renders v as JSON in the given format. Record fields are sorted.
func Encode(v any, f Format) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	out := buf.Bytes()
	switch f {
	case Compact:
		return pretty.Ugly(out), nil
	case Color:
		return pretty.Color(pretty.PrettyOptions(out, prettyOptions), nil), nil
	default:
		return pretty.PrettyOptions(out, prettyOptions), nil
	}
}

// prettyOptions is the layout shared by Pretty and Color.
var prettyOptions = &pretty.Options{Indent: "  ", Width: 80, SortKeys: true}

// Query resolves path in root and encodes the result.
func Query(root any, path tree.Path, f Format) ([]byte, error) {
	v, ok := tree.Resolve(root, path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return Encode(v, f)
}

// Empty returns a blank dialogue document.
func Empty() map[string]any {
	return map[string]any{
		"variables":  []any{},
		"procs":      []any{},
		"entrypoint": []any{},
	}
}

// ColorFormat picks Color or Pretty for output to f.
// Mode is "always", "never", or "auto"; auto colors only terminals.
func ColorFormat(mode string, f *os.File) (Format, error) {
	switch mode {
	case "always":
		return Color, nil
	case "never":
		return Pretty, nil
	case "auto", "":
		if f != nil && term.IsTerminal(int(f.Fd())) {
			return Color, nil
		}
		return Pretty, nil
	default:
		return Pretty, fmt.Errorf("%w: %q", ErrUnknownColorMode, mode)
	}
}

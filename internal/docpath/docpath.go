// Package docpath navigates and mutates decoded JSON documents using
// slash-delimited paths such as "chapters/0/sections/2/content".
//
// Documents are the generic trees produced by encoding/json: objects are
// map[string]any, arrays are []any, everything else is a scalar leaf.
package docpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptyPath       = errors.New("empty path")
	ErrEmptySegment    = errors.New("empty path segment")
	ErrKeyNotFound     = errors.New("key not found")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidIndex    = errors.New("segment is not an array index")
	ErrNotContainer    = errors.New("value is neither an object nor an array")
)

// PathError describes which segment of a path could not be resolved.
type PathError struct {
	Path     string
	Segment  string
	Position int
	Err      error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %q: segment %d (%q): %v", e.Path, e.Position, e.Segment, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Path is a parsed slash-delimited path.
type Path struct {
	raw      string
	segments []string
}

// Parse splits a slash-delimited path. Leading and trailing slashes are ignored.
func Parse(raw string) (Path, error) {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return Path{}, &PathError{Path: raw, Err: ErrEmptyPath}
	}
	segments := strings.Split(trimmed, "/")
	for i, seg := range segments {
		if seg == "" {
			return Path{}, &PathError{Path: raw, Position: i, Err: ErrEmptySegment}
		}
	}
	return Path{raw: raw, segments: segments}, nil
}

// Segments returns the individual path elements.
func (p Path) Segments() []string {
	return append([]string(nil), p.segments...)
}

func (p Path) String() string { return p.raw }

// Get returns the value at path.
func Get(doc any, path Path) (any, error) {
	node := doc
	for i, seg := range path.segments {
		next, err := child(node, seg)
		if err != nil {
			return nil, path.fail(i, err)
		}
		node = next
	}
	return node, nil
}

// Set overwrites the leaf at path with value and returns the (possibly new)
// root. Every intermediate segment must exist. The final segment may name a
// new key of an object; on an array it must address an existing element.
// On error doc is left unmodified.
func Set(doc any, path Path, value any) (any, error) {
	if len(path.segments) == 0 {
		return nil, &PathError{Path: path.raw, Err: ErrEmptyPath}
	}

	parent := doc
	last := len(path.segments) - 1
	for i, seg := range path.segments[:last] {
		next, err := child(parent, seg)
		if err != nil {
			return nil, path.fail(i, err)
		}
		parent = next
	}

	leaf := path.segments[last]
	switch container := parent.(type) {
	case map[string]any:
		container[leaf] = value
	case []any:
		idx, err := index(leaf, len(container))
		if err != nil {
			return nil, path.fail(last, err)
		}
		container[idx] = value
	default:
		return nil, path.fail(last, ErrNotContainer)
	}
	return doc, nil
}

func child(node any, seg string) (any, error) {
	switch container := node.(type) {
	case map[string]any:
		v, ok := container[seg]
		if !ok {
			return nil, ErrKeyNotFound
		}
		return v, nil
	case []any:
		idx, err := index(seg, len(container))
		if err != nil {
			return nil, err
		}
		return container[idx], nil
	default:
		return nil, ErrNotContainer
	}
}

func index(seg string, length int) (int, error) {
	idx, err := strconv.Atoi(seg)
	if err != nil {
		return 0, ErrInvalidIndex
	}
	if idx < 0 || idx >= length {
		return 0, ErrIndexOutOfRange
	}
	return idx, nil
}

func (p Path) fail(pos int, err error) error {
	return &PathError{Path: p.raw, Segment: p.segments[pos], Position: pos, Err: err}
}

package pathutil

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned when a path cannot address a value, such as a
// non-index segment applied to an array.
var ErrInvalidPath = errors.New("pathutil: invalid path")

// Shape classifies a container as array-like or object-like.
type Shape uint8

const (
	// ShapeAuto means the shape is not decided yet.
	ShapeAuto Shape = iota
	ShapeArray
	ShapeObject
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeObject:
		return "object"
	default:
		return "auto"
	}
}

// Split parses a dotted/bracketed path into its segments.
// An empty path yields no segments.
func Split(path string) []string {
	if path == "" {
		return nil
	}

	var (
		segs []string
		cur  strings.Builder
		// pending reports that cur holds a segment even if it is empty,
		// e.g. after `a.` or `[""]`.
		pending bool
	)
	flush := func() {
		if cur.Len() > 0 || pending {
			segs = append(segs, cur.String())
		}
		cur.Reset()
		pending = false
	}

	for i := 0; i < len(path); i++ {
		c := path[i]
		switch c {
		case '.':
			flush()
			pending = true
		case '[':
			flush()
			end, seg := scanBracket(path, i+1)
			segs = append(segs, seg)
			i = end
			// A dot directly after `]` only separates.
			if i+1 < len(path) && path[i+1] == '.' {
				i++
			}
		default:
			cur.WriteByte(c)
			pending = true
		}
	}
	flush()
	return segs
}

// scanBracket reads a bracket segment starting after '['. It returns the index
// of the closing ']' and the unquoted contents.
func scanBracket(path string, start int) (int, string) {
	if start < len(path) && (path[start] == '"' || path[start] == '\'') {
		quote := path[start]
		var b strings.Builder
		i := start + 1
		for ; i < len(path); i++ {
			if path[i] == '\\' && i+1 < len(path) {
				i++
				b.WriteByte(path[i])
				continue
			}
			if path[i] == quote {
				break
			}
			b.WriteByte(path[i])
		}
		// skip to ']'
		for i < len(path) && path[i] != ']' {
			i++
		}
		return i, b.String()
	}

	end := strings.IndexByte(path[start:], ']')
	if end < 0 {
		return len(path) - 1, path[start:]
	}
	return start + end, path[start : start+end]
}

// Join renders segments as a dotted path.
func Join(segs []string) string {
	return strings.Join(segs, ".")
}

// MaxIndex is the largest array index a path may address. Larger digit
// segments still imply an array but are rejected as invalid.
const MaxIndex = 1 << 20

func isDigits(seg string) bool {
	if seg == "" {
		return false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return false
		}
	}
	return true
}

// Index parses seg as an array index in [0, MaxIndex].
func Index(seg string) (int, bool) {
	if !isDigits(seg) {
		return 0, false
	}
	n, err := strconv.Atoi(seg)
	if err != nil || n > MaxIndex {
		return 0, false
	}
	return n, true
}

// ShapeOf infers the shape a segment implies for the container it indexes:
// digit-only segments imply an array, anything else an object.
func ShapeOf(seg string) Shape {
	if isDigits(seg) {
		return ShapeArray
	}
	return ShapeObject
}

// Package mdedit implements selection-aware markdown editing: inline and
// line-level format actions, list continuation on accept-line, and task
// checkbox toggling. Every function is pure and works on byte offsets.
package mdedit

import (
	"strings"
	"unicode/utf8"
)

// Range is a selection over a buffer: a start offset and a length, in bytes.
// A zero-length range is a caret.
type Range struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// End returns the offset just past the range.
func (r Range) End() int {
	return r.Start + r.Length
}

// IsCaret reports whether the range is empty.
func (r Range) IsCaret() bool {
	return r.Length == 0
}

// Clamp clips r into a buffer of length n. It never fails: the start is moved
// into [0, n] and the length into [0, n-start].
func Clamp(r Range, n int) Range {
	if n < 0 {
		n = 0
	}
	start := min(max(r.Start, 0), n)
	length := min(max(r.Length, 0), n-start)
	return Range{Start: start, Length: length}
}

// ClampTo clips r into buf like Clamp and then moves both ends back to the
// nearest character start, so no edit splits a multi-byte UTF-8 sequence.
func ClampTo(buf string, r Range) Range {
	r = Clamp(r, len(buf))
	start := runeStart(buf, r.Start)
	end := max(runeStart(buf, r.End()), start)
	return Range{Start: start, Length: end - start}
}

func runeStart(buf string, i int) int {
	for i > 0 && i < len(buf) && !utf8.RuneStart(buf[i]) {
		i--
	}
	return i
}

// LineRange returns the full line containing offset, including its
// terminating newline if it has one. The offset is clamped first.
func LineRange(buf string, offset int) Range {
	offset = min(max(offset, 0), len(buf))
	start := strings.LastIndexByte(buf[:offset], '\n') + 1
	end := len(buf)
	if i := strings.IndexByte(buf[offset:], '\n'); i >= 0 {
		end = offset + i + 1
	}
	return Range{Start: start, Length: end - start}
}

// LineRangeCovering returns the union of all lines touched by sel. An empty
// selection covers the line holding the caret; a non-empty one covers every
// line from its first byte to its last byte.
func LineRangeCovering(buf string, sel Range) Range {
	sel = ClampTo(buf, sel)
	first := LineRange(buf, sel.Start)
	if sel.IsCaret() {
		return first
	}
	last := LineRange(buf, sel.End()-1)
	return Range{Start: first.Start, Length: last.End() - first.Start}
}

// SplitLines splits buf on newlines. A trailing newline yields an empty last
// line, and an empty buffer yields a single empty line.
func SplitLines(buf string) []string {
	return strings.Split(buf, "\n")
}

// contentLength returns the length of line without trailing \n and \r bytes.
func contentLength(line string) int {
	return len(strings.TrimRight(line, "\r\n"))
}

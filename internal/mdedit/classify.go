package mdedit

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headingRe   = regexp.MustCompile(`^([ \t]*)(#{1,6})[ \t]+(.*)$`)
	taskRe      = regexp.MustCompile(`^([ \t]*)([-*+])[ \t]+\[([ xX])\][ \t]*(.*)$`)
	unorderedRe = regexp.MustCompile(`^([ \t]*)([-*+])[ \t]+(.*)$`)
	orderedRe   = regexp.MustCompile(`^([ \t]*)(\d+)([.)])[ \t]+(.*)$`)
)

// Kind is the structural category of a single line.
type Kind int

const (
	KindPlain Kind = iota
	KindHeading
	KindUnordered
	KindOrdered
	KindTask
)

var kindNames = [...]string{
	KindPlain:     "plain",
	KindHeading:   "heading",
	KindUnordered: "unordered",
	KindOrdered:   "ordered",
	KindTask:      "task",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Line is the classification of one line of text. Only the fields relevant
// to Kind are set; Indent and Text are always set.
type Line struct {
	Kind      Kind
	Indent    string
	Level     int    // heading level, 1-6
	Bullet    string // "-", "*" or "+" for unordered and task lines
	Number    int    // ordered lines
	Separator string // "." or ")" for ordered lines
	Checked   bool   // task lines
	Text      string

	// glyph is the byte offset of the checkbox mark within the line.
	glyph int
}

// IsList reports whether the line is an unordered, ordered or task item.
func (l Line) IsList() bool {
	return l.Kind == KindUnordered || l.Kind == KindOrdered || l.Kind == KindTask
}

// HasContent reports whether the line carries non-blank text after its prefix.
func (l Line) HasContent() bool {
	return strings.TrimSpace(l.Text) != ""
}

// Classify recognises at most one prefix on line. The line must not contain
// its terminating newline. Task lines are tested before plain bullets so a
// checkbox is never mistaken for text.
func Classify(line string) Line {
	if m := taskRe.FindStringSubmatchIndex(line); m != nil {
		mark := line[m[6]:m[7]]
		return Line{
			Kind:    KindTask,
			Indent:  line[m[2]:m[3]],
			Bullet:  line[m[4]:m[5]],
			Checked: mark == "x" || mark == "X",
			Text:    line[m[8]:m[9]],
			glyph:   m[6],
		}
	}
	if m := unorderedRe.FindStringSubmatch(line); m != nil {
		return Line{Kind: KindUnordered, Indent: m[1], Bullet: m[2], Text: m[3]}
	}
	if m := orderedRe.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			n = 1
		}
		return Line{Kind: KindOrdered, Indent: m[1], Number: n, Separator: m[3], Text: m[4]}
	}
	if m := headingRe.FindStringSubmatch(line); m != nil {
		return Line{Kind: KindHeading, Indent: m[1], Level: len(m[2]), Text: m[3]}
	}
	indent := leadingIndent(line)
	return Line{Kind: KindPlain, Indent: indent, Text: line[len(indent):]}
}

func leadingIndent(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

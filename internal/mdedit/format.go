package mdedit

import (
	"strconv"
	"strings"
)

// Action is a markdown format action. The set is closed.
type Action int

const (
	ActionBold Action = iota
	ActionItalic
	ActionUnderline
	ActionStrikethrough
	ActionHeading1
	ActionHeading2
	ActionHeading3
	ActionBulletList
	ActionNumberedList
	ActionTaskList
)

// placeholder is inserted between inline markers when nothing is selected.
const placeholder = "text"

type actionInfo struct {
	name   string
	title  string
	marker string // inline marker pair half, or the line template
	inline bool
}

var actions = [...]actionInfo{
	ActionBold:          {name: "bold", title: "Bold", marker: "**", inline: true},
	ActionItalic:        {name: "italic", title: "Italic", marker: "*", inline: true},
	ActionUnderline:     {name: "underline", title: "Underline", marker: "__", inline: true},
	ActionStrikethrough: {name: "strikethrough", title: "Strikethrough", marker: "~~", inline: true},
	ActionHeading1:      {name: "heading1", title: "Heading 1", marker: "# "},
	ActionHeading2:      {name: "heading2", title: "Heading 2", marker: "## "},
	ActionHeading3:      {name: "heading3", title: "Heading 3", marker: "### "},
	ActionBulletList:    {name: "bulletList", title: "Bulleted List", marker: "- "},
	ActionNumberedList:  {name: "numberedList", title: "Numbered List", marker: "1. "},
	ActionTaskList:      {name: "taskList", title: "Task List", marker: "- [ ] "},
}

// Actions returns every action in toolbar order.
func Actions() []Action {
	out := make([]Action, len(actions))
	for i := range actions {
		out[i] = Action(i)
	}
	return out
}

// ParseAction looks an action up by its String name.
func ParseAction(name string) (Action, bool) {
	for i, a := range actions {
		if a.name == name {
			return Action(i), true
		}
	}
	return 0, false
}

func (a Action) valid() bool {
	return a >= 0 && int(a) < len(actions)
}

func (a Action) String() string {
	if !a.valid() {
		return "unknown"
	}
	return actions[a].name
}

// Title is the human-readable label of the action.
func (a Action) Title() string {
	if !a.valid() {
		return ""
	}
	return actions[a].title
}

// IsInline reports whether the action wraps the selection in markers rather
// than rewriting whole lines.
func (a Action) IsInline() bool {
	return a.valid() && actions[a].inline
}

// Apply runs action against buf and returns the rewritten buffer and the new
// selection. The selection is clamped and moved onto character boundaries on
// entry, and the returned one always lies within the returned buffer.
// Unknown actions return the input.
func Apply(action Action, buf string, sel Range) (string, Range) {
	sel = ClampTo(buf, sel)
	if !action.valid() {
		return buf, sel
	}
	info := actions[action]
	if info.inline {
		return wrapInline(info.marker, buf, sel)
	}
	return transformLines(buf, sel, info.marker, lineTransform(action))
}

// wrapInline surrounds the selection with marker. Re-applying nests markers
// again; nothing is unwrapped.
func wrapInline(marker, buf string, sel Range) (string, Range) {
	selected := buf[sel.Start:sel.End()]
	if selected == "" {
		selected = placeholder
	}
	out := buf[:sel.Start] + marker + selected + marker + buf[sel.End():]
	return out, Range{Start: sel.Start + len(marker), Length: len(selected)}
}

// lineFunc rewrites one line; blank lines are handed over as well.
type lineFunc func(line string) string

func lineTransform(action Action) lineFunc {
	switch action {
	case ActionHeading1, ActionHeading2, ActionHeading3:
		prefix := actions[action].marker
		return func(line string) string {
			indent, content := stripPrefix(line)
			return indent + prefix + content
		}
	case ActionNumberedList:
		n := 0
		return func(line string) string {
			if isBlank(line) {
				return line
			}
			n++
			indent, content := stripPrefix(line)
			return indent + strconv.Itoa(n) + ". " + content
		}
	default:
		prefix := actions[action].marker
		return func(line string) string {
			if isBlank(line) {
				return line
			}
			indent, content := stripPrefix(line)
			return indent + prefix + content
		}
	}
}

// transformLines rewrites every line covered by sel. The newline ending the
// last covered line stays outside the rewritten region. A region that is one
// empty line (including an empty buffer) receives template and the caret is
// placed just past it.
func transformLines(buf string, sel Range, template string, fn lineFunc) (string, Range) {
	region := LineRangeCovering(buf, sel)
	text := buf[region.Start:region.End()]
	text = strings.TrimSuffix(text, "\n")
	end := region.Start + len(text)

	if strings.TrimRight(text, "\r") == "" {
		out := buf[:region.Start] + template + buf[region.Start:]
		return out, Range{Start: region.Start + len(template)}
	}

	lines := SplitLines(text)
	for i, line := range lines {
		lines[i] = fn(line)
	}
	replacement := strings.Join(lines, "\n")
	out := buf[:region.Start] + replacement + buf[end:]
	return out, Range{Start: region.Start, Length: len(replacement)}
}

// stripPrefix splits line into its indentation and its content with any
// heading, list or task marker removed.
func stripPrefix(line string) (indent, content string) {
	l := Classify(line)
	return l.Indent, l.Text
}

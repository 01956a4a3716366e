package mdedit

import (
	"iter"
	"strings"
)

// TaskLine is a checkbox line found in a buffer.
type TaskLine struct {
	LineIndex int    `json:"line_index"`
	Indent    string `json:"indent"`
	Bullet    string `json:"bullet"`
	Checked   bool   `json:"checked"`
	Text      string `json:"text"`
}

// TaskLines yields every task line in buf in order. The sequence is lazy and
// may be ranged over any number of times.
func TaskLines(buf string) iter.Seq[TaskLine] {
	return func(yield func(TaskLine) bool) {
		i := 0
		for line := range strings.SplitSeq(buf, "\n") {
			l := Classify(line)
			if l.Kind == KindTask {
				t := TaskLine{
					LineIndex: i,
					Indent:    l.Indent,
					Bullet:    l.Bullet,
					Checked:   l.Checked,
					Text:      l.Text,
				}
				if !yield(t) {
					return
				}
			}
			i++
		}
	}
}

// Toggle flips the checkbox on line lineIndex and returns the new buffer.
// Only the mark byte changes. An out-of-range index or a line that is not a
// task returns buf unchanged.
func Toggle(buf string, lineIndex int) string {
	if lineIndex < 0 {
		return buf
	}
	offset := 0
	for i := 0; i < lineIndex; i++ {
		n := strings.IndexByte(buf[offset:], '\n')
		if n < 0 {
			return buf
		}
		offset += n + 1
	}
	end := len(buf)
	if n := strings.IndexByte(buf[offset:], '\n'); n >= 0 {
		end = offset + n
	}

	l := Classify(buf[offset:end])
	if l.Kind != KindTask {
		return buf
	}
	mark := "x"
	if l.Checked {
		mark = " "
	}
	pos := offset + l.glyph
	return buf[:pos] + mark + buf[pos+1:]
}

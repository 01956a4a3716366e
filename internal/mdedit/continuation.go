package mdedit

import "strconv"

// Outcome is the decision taken on an accept-line event.
type Outcome int

const (
	// Decline leaves the event to the host (submit, or a literal newline).
	Decline Outcome = iota
	ContinueUnordered
	ContinueTask
	ContinueOrdered
	// ExitList removes the empty item's marker, ending the list.
	ExitList
)

var outcomeNames = [...]string{
	Decline:           "decline",
	ContinueUnordered: "continue_unordered",
	ContinueTask:      "continue_task",
	ContinueOrdered:   "continue_ordered",
	ExitList:          "exit_list",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

type acceptKey struct {
	kind       Kind
	hasContent bool
}

// acceptLineTable maps a line's kind and whether it has content to the
// outcome. Anything missing from the table declines.
var acceptLineTable = map[acceptKey]Outcome{
	{KindUnordered, true}:  ContinueUnordered,
	{KindTask, true}:       ContinueTask,
	{KindOrdered, true}:    ContinueOrdered,
	{KindUnordered, false}: ExitList,
	{KindTask, false}:      ExitList,
	{KindOrdered, false}:   ExitList,
}

// Decide returns the accept-line outcome for a classified line. atLineEnd
// reports whether the caret sits at the end of the line's content; shift
// reports whether the host's shift modifier is held.
func Decide(line Line, atLineEnd, shift bool) Outcome {
	if shift || !atLineEnd {
		return Decline
	}
	return acceptLineTable[acceptKey{kind: line.Kind, hasContent: line.HasContent()}]
}

// Edit is the result of an accept-line event.
type Edit struct {
	Outcome   Outcome `json:"outcome"`
	Text      string  `json:"text"`
	Selection Range   `json:"selection"`
}

// HandleAcceptLine decides what an accept-line keystroke does at caret. It
// returns false when the event is declined, in which case the returned edit
// carries buf and the clamped caret unchanged. A caret inside a multi-byte
// character is moved to that character's start.
func HandleAcceptLine(buf string, caret Range, shift bool) (Edit, bool) {
	caret = ClampTo(buf, caret)
	declined := Edit{Outcome: Decline, Text: buf, Selection: caret}
	if !caret.IsCaret() {
		return declined, false
	}

	lr := LineRange(buf, caret.Start)
	content := Range{Start: lr.Start, Length: contentLength(buf[lr.Start:lr.End()])}
	line := Classify(buf[content.Start:content.End()])

	outcome := Decide(line, caret.Start == content.End(), shift)
	switch outcome {
	case ContinueUnordered, ContinueTask, ContinueOrdered:
		insert := "\n" + continuationMarker(outcome, line)
		out := buf[:caret.Start] + insert + buf[caret.Start:]
		return Edit{
			Outcome:   outcome,
			Text:      out,
			Selection: Range{Start: caret.Start + len(insert)},
		}, true
	case ExitList:
		out := buf[:content.Start] + buf[content.End():]
		return Edit{
			Outcome:   outcome,
			Text:      out,
			Selection: Range{Start: content.Start},
		}, true
	default:
		return declined, false
	}
}

func continuationMarker(outcome Outcome, line Line) string {
	switch outcome {
	case ContinueTask:
		return line.Indent + line.Bullet + " [ ] "
	case ContinueOrdered:
		return line.Indent + strconv.Itoa(max(line.Number+1, 1)) + line.Separator + " "
	default:
		return line.Indent + line.Bullet + " "
	}
}

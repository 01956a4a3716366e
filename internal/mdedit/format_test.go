package mdedit

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_BoldWrapsSelection(t *testing.T) {
	out, sel := Apply(ActionBold, "launch window", Range{Start: 0, Length: 6})
	assert.Equal(t, "**launch** window", out)
	assert.Equal(t, Range{Start: 2, Length: 6}, sel)
}

func TestApply_InlineWithoutSelectionInsertsPlaceholder(t *testing.T) {
	out, sel := Apply(ActionItalic, "", Range{})
	assert.Equal(t, "*text*", out)
	assert.Equal(t, Range{Start: 1, Length: 4}, sel)

	out, sel = Apply(ActionBold, "ab", Range{Start: 1})
	assert.Equal(t, "a**text**b", out)
	assert.Equal(t, Range{Start: 3, Length: 4}, sel)
	assert.Equal(t, "text", out[sel.Start:sel.End()])
}

func TestApply_InlinePreservesSelectedText(t *testing.T) {
	buf := "the quick brown fox"
	markers := map[Action]string{
		ActionBold:          "**",
		ActionItalic:        "*",
		ActionUnderline:     "__",
		ActionStrikethrough: "~~",
	}
	for action, marker := range markers {
		for _, in := range []Range{{Start: 4, Length: 5}, {Start: 0, Length: 19}, {Start: 16, Length: 3}} {
			out, sel := Apply(action, buf, in)
			selected := buf[in.Start:in.End()]
			assert.Equal(t, selected, out[sel.Start:sel.End()], "%s %+v", action, in)
			assert.Equal(t, buf[:in.Start]+marker+selected+marker+buf[in.End():], out)
		}
	}
}

func TestApply_InlineNestsOnReapply(t *testing.T) {
	out, sel := Apply(ActionBold, "word", Range{Start: 0, Length: 4})
	out, _ = Apply(ActionBold, out, sel)
	assert.Equal(t, "****word****", out)
}

func TestApply_HeadingOnSelectedLines(t *testing.T) {
	out, sel := Apply(ActionHeading2, "alpha\nbeta", Range{Start: 0, Length: 10})
	assert.Equal(t, "## alpha\n## beta", out)
	assert.Equal(t, Range{Start: 0, Length: 16}, sel)
}

func TestApply_HeadingTwiceKeepsOnePrefix(t *testing.T) {
	out, sel := Apply(ActionHeading2, "alpha", Range{})
	require.Equal(t, "## alpha", out)
	out, _ = Apply(ActionHeading2, out, sel)
	assert.Equal(t, "## alpha", out)

	out, _ = Apply(ActionHeading1, "### alpha", Range{})
	assert.Equal(t, "# alpha", out)
}

func TestApply_HeadingStripsListMarkers(t *testing.T) {
	out, _ := Apply(ActionHeading1, "- [ ] alpha", Range{})
	assert.Equal(t, "# alpha", out)
}

func TestApply_HeadingPrefixesBlankLines(t *testing.T) {
	out, _ := Apply(ActionHeading1, "a\n\nb", Range{Start: 0, Length: 4})
	assert.Equal(t, "# a\n# \n# b", out)
}

func TestApply_ListActionsNormalizeExistingPrefixes(t *testing.T) {
	out, _ := Apply(ActionBulletList, "1. alpha\n2. beta", Range{Start: 0, Length: 16})
	assert.Equal(t, "- alpha\n- beta", out)

	out, _ = Apply(ActionNumberedList, "- alpha\n- beta", Range{Start: 0, Length: 14})
	assert.Equal(t, "1. alpha\n2. beta", out)

	out, _ = Apply(ActionNumberedList, "7) x\n3. y\n- [x] z", Range{Start: 0, Length: 17})
	assert.Equal(t, "1. x\n2. y\n3. z", out)
}

func TestApply_TaskListBuildsUncheckedTasks(t *testing.T) {
	out, _ := Apply(ActionTaskList, "alpha\nbeta", Range{Start: 0, Length: 10})
	assert.Equal(t, "- [ ] alpha\n- [ ] beta", out)
}

func TestApply_ListsSkipBlankLines(t *testing.T) {
	out, _ := Apply(ActionNumberedList, "a\n\nb", Range{Start: 0, Length: 4})
	assert.Equal(t, "1. a\n\n2. b", out)

	out, _ = Apply(ActionBulletList, "a\n   \nb", Range{Start: 0, Length: 7})
	assert.Equal(t, "- a\n   \n- b", out)
}

func TestApply_PreservesIndentation(t *testing.T) {
	out, _ := Apply(ActionNumberedList, "  - a\n\t* b", Range{Start: 0, Length: 10})
	assert.Equal(t, "  1. a\n\t2. b", out)
}

func TestApply_PartialSelectionCoversWholeLines(t *testing.T) {
	out, sel := Apply(ActionBulletList, "one\ntwo\nthree", Range{Start: 2, Length: 3})
	assert.Equal(t, "- one\n- two\nthree", out)
	assert.Equal(t, Range{Start: 0, Length: 11}, sel)
}

func TestApply_KeepsTrailingNewline(t *testing.T) {
	out, sel := Apply(ActionBulletList, "alpha\n", Range{Start: 0, Length: 6})
	assert.Equal(t, "- alpha\n", out)
	assert.Equal(t, Range{Start: 0, Length: 7}, sel)
}

func TestApply_EmptyBufferInsertsTemplate(t *testing.T) {
	cases := map[Action]string{
		ActionBulletList:   "- ",
		ActionNumberedList: "1. ",
		ActionTaskList:     "- [ ] ",
		ActionHeading3:     "### ",
	}
	for action, want := range cases {
		out, sel := Apply(action, "", Range{Start: 3, Length: 2})
		assert.Equal(t, want, out, action.String())
		assert.Equal(t, Range{Start: len(want)}, sel, action.String())
	}
}

func TestApply_EmptyTrailingLineInsertsTemplate(t *testing.T) {
	out, sel := Apply(ActionBulletList, "alpha\n", Range{Start: 6})
	assert.Equal(t, "alpha\n- ", out)
	assert.Equal(t, Range{Start: 8}, sel)
}

func TestApply_SelectionAlwaysInBounds(t *testing.T) {
	buffers := []string{"", "x", "alpha\nbeta", "- a\n\n  1. b\n", "## h\n- [ ] t\nplain"}
	selections := []Range{{}, {Start: 1, Length: 3}, {Start: -5, Length: 100}, {Start: 50}, {Start: 3, Length: 0}}
	for _, action := range Actions() {
		for _, buf := range buffers {
			for _, in := range selections {
				out, sel := Apply(action, buf, in)
				assert.GreaterOrEqual(t, sel.Start, 0)
				assert.GreaterOrEqual(t, sel.Length, 0)
				assert.LessOrEqual(t, sel.End(), len(out), "%s on %q %+v", action, buf, in)
			}
		}
	}
}

func TestParseAction(t *testing.T) {
	for _, a := range Actions() {
		got, ok := ParseAction(a.String())
		require.True(t, ok, a.String())
		assert.Equal(t, a, got)
		assert.NotEmpty(t, a.Title())
	}
	_, ok := ParseAction("blink")
	assert.False(t, ok)
	assert.True(t, ActionStrikethrough.IsInline())
	assert.False(t, ActionTaskList.IsInline())
}

func TestApply_UnknownActionIsNoop(t *testing.T) {
	out, sel := Apply(Action(99), "abc", Range{Start: 1, Length: 9})
	assert.Equal(t, "abc", out)
	assert.Equal(t, Range{Start: 1, Length: 2}, sel)
}

func TestApply_KeepsMultiByteCharactersWhole(t *testing.T) {
	out, sel := Apply(ActionBold, "café", Range{Start: 4})
	assert.Equal(t, "caf**text**é", out)
	assert.Equal(t, Range{Start: 5, Length: 4}, sel)
	assert.True(t, utf8.ValidString(out))

	out, sel = Apply(ActionItalic, "日本", Range{Start: 1, Length: 2})
	assert.Equal(t, "*日*本", out)
	assert.Equal(t, Range{Start: 1, Length: 3}, sel)
	assert.True(t, utf8.ValidString(out))
}

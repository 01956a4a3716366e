package mcpserver

// SessionFormat describes the session document layout that LLM consumers
// should expect when reading session files.
const SessionFormat = `# Orbit Session Format

Every session is one Markdown file named ` + "`" + `YYYY-MM-DD-HHmm-<identity>.md` + "`" + `.

## Structure

` + "```" + `markdown
# Session: Cache rework - 2024-01-15 14:30
Tags: coding, perf
Started: 2024-01-15 14:30
Ended: 2024-01-15 16:05

## Captured Items

### 14:35 - @todo
- [ ] write tests
- [x] fix parser

### 14:50 - @note
cache invalidation is tricky
` + "```" + `

## Rules

1. The header is ` + "`" + `# Session: <title> - <yyyy-MM-dd HH:mm>` + "`" + `. The date follows the last " - ".
2. ` + "`" + `Tags:` + "`" + ` is a comma-separated list. Tag names are matched case-insensitively.
3. ` + "`" + `Ended:` + "`" + ` is omitted while the session is open.
4. Each item starts with ` + "`" + `### HH:mm - @type` + "`" + ` where type is one of todo, next, note, link.
5. Item content runs until the next item header. Task lines use ` + "`" + `- [ ]` + "`" + ` and ` + "`" + `- [x]` + "`" + `.
6. Older files use ` + "`" + `# Session: <Mode> - <date>` + "`" + ` with no metadata lines, where Mode is
   Coding, Researching, Email or Meeting. They are read with that mode as their only tag.

## Capturing

The ` + "`" + `capture_item` + "`" + ` tool takes one line of input. A leading ` + "`" + `@todo` + "`" + `, ` + "`" + `@next` + "`" + `,
` + "`" + `@note` + "`" + ` or ` + "`" + `@link` + "`" + ` picks the type; anything else is captured as a note.
`

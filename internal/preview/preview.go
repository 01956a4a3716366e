// Package preview renders captured markdown for display: HTML for the REST
// surface and styled text for the terminal.
package preview

import (
	"bytes"
	"html"
	"log/slog"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown to HTML. It is stateless and safe for
// concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a renderer with GFM, task lists and autolinks enabled. Raw
// HTML in the source is not passed through.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.TaskList, extension.Linkify),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
	}
}

// HTML renders source as HTML. If conversion fails the source is returned
// escaped inside a <pre> block so the caller always has something to show.
func (r *Renderer) HTML(source string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		slog.Debug("markdown conversion failed, showing plain text", slog.String("error", err.Error()))
		return Plain(source)
	}
	return buf.String()
}

// Plain is the escaped plain-text fallback.
func Plain(source string) string {
	return "<pre>" + html.EscapeString(source) + "</pre>"
}

// Terminal renders source for a terminal of the given width. An empty style
// picks one from the terminal background. On any renderer error the raw
// source is returned.
func Terminal(source string, width int, style string) string {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		slog.Debug("failed to create terminal renderer, showing raw content", slog.String("error", err.Error()))
		return source
	}
	out, err := r.Render(source)
	if err != nil {
		slog.Debug("failed to render markdown, showing raw content", slog.String("error", err.Error()))
		return source
	}
	return out
}

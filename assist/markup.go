package assist

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

// markdown renderer for generated text that comes back as Markdown
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // keep inline HTML the model mixes in
	),
)

// ToHTML turns generated text into an HTML fragment for the editor. Text
// that already is HTML passes through unchanged apart from code fences.
func ToHTML(text string) string {
	text = stripFences(text)
	if text == "" || strings.HasPrefix(text, "<") {
		return text
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return text
	}
	return strings.TrimSpace(buf.String())
}

// IsEmptyBody reports whether an editor body has no real content.
func IsEmptyBody(body string) bool {
	switch strings.TrimSpace(body) {
	case "", "<p><br></p>", "<p></p>", "<p>Write your blog content here...</p>":
		return true
	}
	return false
}

package server

import (
	"bytes"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Markdown renders GitHub flavored markdown to sanitized HTML.
type Markdown struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewMarkdown creates a renderer with GFM extensions and heading ids.
func NewMarkdown() *Markdown {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	policy.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	policy.AllowAttrs("checked", "disabled").OnElements("input")

	return &Markdown{md: md, policy: policy}
}

// Render converts source to HTML. Raw HTML in the source survives only as
// far as the sanitizer allows.
func (m *Markdown) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.md.Convert(source, &buf); err != nil {
		return nil, err
	}
	return m.policy.SanitizeBytes(buf.Bytes()), nil
}

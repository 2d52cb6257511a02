// Package markdown splits explanations into "## " sections and renders
// them for the web page and the terminal.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/sakif/repo-explainer/internal/model"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// SplitSections returns one section per top-level ATX level-2 heading, in
// document order. Content runs from the line after the heading to the next
// such heading and is trimmed. Text before the first heading is dropped.
// "##" lines inside code fences are not headings.
func SplitSections(markdown string) []model.MarkdownSection {
	src := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(src))

	type mark struct {
		heading      string
		lineStart    int
		contentStart int
	}
	var marks []mark

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 2 {
			continue
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			continue
		}

		first := lines.At(0)
		lineStart := bytes.LastIndexByte(src[:first.Start], '\n') + 1
		if !bytes.HasPrefix(bytes.TrimLeft(src[lineStart:first.Start], " "), []byte("##")) {
			continue // setext heading
		}

		stop := lines.At(lines.Len() - 1).Stop
		contentStart := len(src)
		if i := bytes.IndexByte(src[stop:], '\n'); i >= 0 {
			contentStart = stop + i + 1
		}

		marks = append(marks, mark{
			heading:      strings.TrimSpace(string(lines.Value(src))),
			lineStart:    lineStart,
			contentStart: contentStart,
		})
	}

	sections := make([]model.MarkdownSection, 0, len(marks))
	for i, m := range marks {
		end := len(src)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		content := ""
		if m.contentStart < end {
			content = strings.TrimSpace(string(src[m.contentStart:end]))
		}
		sections = append(sections, model.MarkdownSection{Heading: m.heading, Content: content})
	}
	return sections
}

package markdown

import (
	"bytes"
	"fmt"

	"github.com/sakif/repo-explainer/internal/model"
)

// RenderHTML converts markdown to HTML. Raw HTML in the input is omitted.
func RenderHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("markdown: rendering: %w", err)
	}
	return buf.String(), nil
}

// RenderSection renders a section with its heading re-attached.
func RenderSection(sec model.MarkdownSection) (string, error) {
	return RenderHTML("## " + Emphasize(sec.Heading) + "\n" + sec.Content)
}

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sakif/repo-explainer/internal/markdown"
	"github.com/sakif/repo-explainer/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	metaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	bodyStyle  = lipgloss.NewStyle().PaddingLeft(2)

	toneStyles = map[markdown.Tone]lipgloss.Style{
		markdown.ToneSummary:  lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		markdown.ToneOverview: lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true),
		markdown.ToneFeatures: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		markdown.ToneUsage:    lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		markdown.ToneNeutral:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
)

// Render formats an explain result for the terminal: a metadata header
// then one coloured block per "## " section.
func Render(res *service.ExplainResult) string {
	var b strings.Builder

	meta := res.Metadata
	b.WriteString(titleStyle.Render(meta.Name))
	b.WriteString("\n")
	if meta.Description != nil {
		b.WriteString(*meta.Description + "\n")
	}
	line := fmt.Sprintf("★ %d  forks %d  %s", meta.Stars, meta.Forks, meta.URL)
	if meta.LastCommitDate != nil {
		line += "  last commit " + meta.LastCommitDate.Format("2006-01-02")
	}
	b.WriteString(metaStyle.Render(line))
	b.WriteString("\n\n")

	sections := markdown.SplitSections(res.Explanation.Text)
	if len(sections) == 0 {
		b.WriteString(res.Explanation.Text)
		b.WriteString("\n")
		return b.String()
	}

	for _, sec := range sections {
		b.WriteString(toneStyles[markdown.ToneOf(sec.Heading)].Render(sec.Heading))
		b.WriteString("\n")
		b.WriteString(bodyStyle.Render(sec.Content))
		b.WriteString("\n\n")
	}
	return b.String()
}

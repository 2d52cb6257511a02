package markdown

import "strings"

// Tone classifies a section by its heading.
type Tone int

const (
	ToneNeutral Tone = iota
	ToneSummary
	ToneOverview
	ToneFeatures
	ToneUsage
)

// ToneOf matches the heading case-insensitively against the four
// expected section names.
func ToneOf(heading string) Tone {
	h := strings.ToLower(heading)
	switch {
	case strings.Contains(h, "tl;dr"):
		return ToneSummary
	case strings.Contains(h, "what this project"):
		return ToneOverview
	case strings.Contains(h, "key feature"):
		return ToneFeatures
	case strings.Contains(h, "intended use"):
		return ToneUsage
	default:
		return ToneNeutral
	}
}

func (t Tone) String() string {
	switch t {
	case ToneSummary:
		return "summary"
	case ToneOverview:
		return "overview"
	case ToneFeatures:
		return "features"
	case ToneUsage:
		return "usage"
	default:
		return "neutral"
	}
}

// Class is the page's background class for the tone.
func (t Tone) Class() string {
	switch t {
	case ToneSummary:
		return "bg-yellow-900/30"
	case ToneOverview:
		return "bg-blue-900/30"
	case ToneFeatures:
		return "bg-green-900/30"
	case ToneUsage:
		return "bg-pink-900/30"
	default:
		return "bg-slate-700/40"
	}
}

// Emphasize wraps the summary, overview and features headings in bold.
func Emphasize(heading string) string {
	switch ToneOf(heading) {
	case ToneSummary, ToneOverview, ToneFeatures:
		return "**" + heading + "**"
	default:
		return heading
	}
}

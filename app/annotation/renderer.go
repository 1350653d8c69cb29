package annotation

import (
	"fmt"
	"strings"

	"github.com/lysyi3m/source-comb/app/sources"
)

// Renderer turns a match result into the Markdown comment body and the
// flair text posted back to the community.
type Renderer struct {
	communityName string
}

func NewRenderer(communityName string) *Renderer {
	return &Renderer{communityName: communityName}
}

// Run renders the annotation comment. The match result is expected to be
// tier-sorted already; the renderer preserves its order.
func (r *Renderer) Run(matched []sources.Source) (string, error) {
	if len(matched) == 0 {
		return "", fmt.Errorf("no sources to render")
	}

	var b strings.Builder

	if len(matched) == 1 {
		b.WriteString("The following source was recognized in this submission:\n\n")
	} else {
		b.WriteString("The following sources were recognized in this submission:\n\n")
	}

	b.WriteString("| Source | Type | Reliability |\n")
	b.WriteString("|---|---|---|\n")

	for _, source := range matched {
		name := source.Name
		if source.Organization != "" {
			name = fmt.Sprintf("%s (%s)", source.Name, source.Organization)
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(name), source.Type, TierLabel(source.Tier))
	}

	fmt.Fprintf(&b, "\n---\n\n*I am a bot. Reliability tiers are maintained by the r/%s moderators.*\n", r.communityName)

	return b.String(), nil
}

// FlairText returns the flair for a matched submission, driven by the most
// reliable tier present. An all-untiered result reads "unclassified".
func (r *Renderer) FlairText(matched []sources.Source) string {
	best := BestTier(matched)
	if best == nil {
		return "Source: unclassified"
	}
	return fmt.Sprintf("Source: Tier %d", *best)
}

// BestTier returns the lowest tier among the matched sources, or nil when
// none of them carries a tier.
func BestTier(matched []sources.Source) *int {
	var best *int
	for _, source := range matched {
		if source.Tier == nil {
			continue
		}
		if best == nil || *source.Tier < *best {
			best = source.Tier
		}
	}
	return best
}

// TierLabel renders a tier for display. A nil tier means the source has no
// reliability classification, which is different from not matching at all.
func TierLabel(tier *int) string {
	if tier == nil {
		return "unclassified"
	}
	return fmt.Sprintf("Tier %d", *tier)
}

// escapeCell keeps registry-provided names from breaking the table layout.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

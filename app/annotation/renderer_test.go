package annotation

import (
	"strings"
	"testing"

	"github.com/lysyi3m/source-comb/app/sources"
)

func tier(n int) *int {
	return &n
}

func TestRenderer_Run(t *testing.T) {
	renderer := NewRenderer("neutralnews")

	matched := []sources.Source{
		{ID: "acme", Name: "Acme News", Type: sources.TypeMedia, Tier: tier(1)},
		{ID: "elodie", Name: "Élodie Dupont", Type: sources.TypeJournalist, Organization: "Acme News"},
	}

	body, err := renderer.Run(matched)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(body, "| Acme News | media | Tier 1 |") {
		t.Errorf("missing tiered source row in:\n%s", body)
	}
	if !strings.Contains(body, "| Élodie Dupont (Acme News) | journalist | unclassified |") {
		t.Errorf("missing untiered source row in:\n%s", body)
	}
	if !strings.Contains(body, "r/neutralnews") {
		t.Errorf("missing community footer in:\n%s", body)
	}
}

func TestRenderer_RunEmpty(t *testing.T) {
	renderer := NewRenderer("neutralnews")
	if _, err := renderer.Run(nil); err == nil {
		t.Error("expected error for empty match result")
	}
}

func TestRenderer_RunEscapesPipes(t *testing.T) {
	renderer := NewRenderer("neutralnews")
	matched := []sources.Source{
		{ID: "odd", Name: "Odd|Name", Type: sources.TypeMedia},
	}

	body, err := renderer.Run(matched)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(body, "Odd\\|Name") {
		t.Errorf("pipe in source name should be escaped:\n%s", body)
	}
}

func TestRenderer_FlairText(t *testing.T) {
	renderer := NewRenderer("neutralnews")

	tests := []struct {
		name     string
		matched  []sources.Source
		expected string
	}{
		{
			"best tier wins",
			[]sources.Source{{ID: "a", Tier: tier(3)}, {ID: "b", Tier: tier(1)}, {ID: "c"}},
			"Source: Tier 1",
		},
		{
			"all untiered",
			[]sources.Source{{ID: "a"}, {ID: "b"}},
			"Source: unclassified",
		},
	}

	for _, test := range tests {
		if got := renderer.FlairText(test.matched); got != test.expected {
			t.Errorf("%s: expected %q, got %q", test.name, test.expected, got)
		}
	}
}

func TestTierLabel(t *testing.T) {
	if TierLabel(nil) != "unclassified" {
		t.Errorf("nil tier should read 'unclassified', got %q", TierLabel(nil))
	}
	if TierLabel(tier(2)) != "Tier 2" {
		t.Errorf("expected 'Tier 2', got %q", TierLabel(tier(2)))
	}
}

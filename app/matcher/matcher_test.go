package matcher

import (
	"reflect"
	"testing"

	"github.com/lysyi3m/source-comb/app/sources"
	"github.com/lysyi3m/source-comb/app/textnorm"
)

var selfHosts = []string{
	"reddit.com", "www.reddit.com", "old.reddit.com",
	"redd.it", "i.redd.it", "v.redd.it", "preview.redd.it",
}

func tier(n int) *int {
	return &n
}

func newSource(id, name string, common bool, t *int, twitter string, domains ...string) sources.Source {
	s := sources.Source{
		ID:             id,
		Name:           name,
		NameNormalized: textnorm.Normalize(name),
		NameIsCommon:   common,
		Type:           sources.TypeMedia,
		Tier:           t,
		Twitter:        twitter,
		Domains:        domains,
	}
	if twitter != "" {
		s.TwitterNormalized = textnorm.Normalize(twitter)
	}
	return s
}

func scanTitle(title string, registry []sources.Source) []sources.Source {
	content := BuildContent(ContentInput{Title: title, SelfHosts: selfHosts})
	return FindSources(content, registry, Options{})
}

func matchedIDs(result []sources.Source) []string {
	if result == nil {
		return nil
	}
	ids := make([]string, 0, len(result))
	for _, s := range result {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestFindSources_UncommonNameWholeWord(t *testing.T) {
	registry := []sources.Source{
		newSource("acme", "Acme News", false, tier(2), ""),
	}

	tests := []struct {
		title   string
		matches bool
	}{
		{"Acme News publishes new report", true},
		{"ACME NEWS publishes new report", true},
		{"report by Acme News", true},
		{"Ácme Ñews with accents", true},
		{"(Acme News)", true},
		{"Acme News", true},
		{"Acme Newspaper strike continues", false}, // strict substring of longer word
		{"MegaAcme Newsroom launch", false},
		{"nothing to see here", false},
		{"", false},
	}

	for _, test := range tests {
		result := scanTitle(test.title, registry)
		if (result != nil) != test.matches {
			t.Errorf("title %q: expected match=%v, got %v", test.title, test.matches, result != nil)
		}
	}
}

func TestFindSources_CommonNameHighPrecisionOnly(t *testing.T) {
	registry := []sources.Source{
		newSource("post", "Post", true, tier(1), ""),
	}

	tests := []struct {
		title   string
		matches bool
	}{
		{"Post: minister resigns", true},         // colon anchored at start
		{"breaking [Post] minister resigns", true}, // square brackets
		{"minister resigns (Post)", true},          // parentheses
		{"pOsT: case insensitive anchor", true},
		{"the post office reopens", false}, // bare prose never matches
		{"read the Post today", false},
		{"late Post: not anchored at start", false},
		{"", false},
	}

	for _, test := range tests {
		result := scanTitle(test.title, registry)
		if (result != nil) != test.matches {
			t.Errorf("title %q: expected match=%v, got %v", test.title, test.matches, result != nil)
		}
	}
}

func TestFindSources_HandleInText(t *testing.T) {
	registry := []sources.Source{
		newSource("foo", "Foo Person", false, nil, "fooTwitter"),
	}

	tests := []struct {
		title   string
		matches bool
	}{
		{"fooTwitter: thread on the crisis", true},
		{"@fooTwitter: thread on the crisis", true},
		{"as reported by @fooTwitter today", true},
		{"ends with @fooTwitter", true},
		{"summary [fooTwitter] inside", true},
		{"summary (fooTwitter) inside", true},
		{"plain fooTwitter in prose", false}, // bare handle never matches
		{"mention of @fooTwitterX today", false},   // strict prefix of longer token
		{"mention of _fooTwitter today", false},    // extra leading character
		{"late fooTwitter: colon but not at start", false},
	}

	for _, test := range tests {
		result := scanTitle(test.title, registry)
		if (result != nil) != test.matches {
			t.Errorf("title %q: expected match=%v, got %v", test.title, test.matches, result != nil)
		}
	}
}

func TestFindSources_HandleMatchesEvenWhenNameUncommon(t *testing.T) {
	// The handle predicate keeps its precision rules regardless of the
	// nameIsCommon flag.
	registry := []sources.Source{
		newSource("foo", "Foo Person", false, nil, "fooTwitter"),
	}

	if scanTitle("quoting fooTwitter verbatim", registry) != nil {
		t.Error("bare handle in prose must not match even for uncommon-name sources")
	}
	if scanTitle("quoting @fooTwitter verbatim", registry) == nil {
		t.Error("@-prefixed handle should match")
	}
}

func TestFindSources_URLDomain(t *testing.T) {
	registry := []sources.Source{
		newSource("acme", "Acme News", false, tier(2), "", "example.com"),
	}

	tests := []struct {
		url     string
		matches bool
	}{
		{"https://example.com/story", true},
		{"https://en.example.com/story", true},
		{"https://en.m.example.com/story", true},
		{"https://exampleX.com/story", false},
		{"https://xexample.com/story", false},
		{"https://example.com.fake.net/story", false},
		{"https://acme.example.fake.com/", false},
	}

	for _, test := range tests {
		content := BuildContent(ContentInput{Title: "unrelated", URL: test.url, SelfHosts: selfHosts})
		result := FindSources(content, registry, Options{})
		if (result != nil) != test.matches {
			t.Errorf("url %q: expected match=%v, got %v", test.url, test.matches, result != nil)
		}
	}
}

func TestFindSources_URLHandleFirstSegment(t *testing.T) {
	registry := []sources.Source{
		newSource("foo", "Foo Person", false, nil, "fooHandle"),
	}

	tests := []struct {
		url     string
		matches bool
	}{
		{"https://twitter.com/fooHandle", true},
		{"https://twitter.com/fooHandle/", true},
		{"https://twitter.com/FOOHANDLE/status/123", true},
		{"https://x.com/fooHandle/status/123", true},
		{"https://twitter.com/fooHandleX", false},
		{"https://twitter.com/xfooHandle", false},
		{"https://example.com/fooHandle", false}, // not a social host
	}

	for _, test := range tests {
		content := BuildContent(ContentInput{Title: "unrelated", URL: test.url, SelfHosts: selfHosts})
		result := FindSources(content, registry, Options{})
		if (result != nil) != test.matches {
			t.Errorf("url %q: expected match=%v, got %v", test.url, test.matches, result != nil)
		}
	}
}

func TestFindSources_LinksChannel(t *testing.T) {
	registry := []sources.Source{
		newSource("acme", "Acme News", false, tier(2), "", "acme.example"),
	}

	content := BuildContent(ContentInput{
		Title:     "unrelated title",
		Links:     []string{"https://other.example/a", "https://acme.example/story"},
		SelfHosts: selfHosts,
	})

	result := FindSources(content, registry, Options{})
	if result == nil {
		t.Fatal("expected a match via the links channel")
	}
}

func TestFindSources_BodyChannelGatedByOptions(t *testing.T) {
	registry := []sources.Source{
		newSource("acme", "Acme News", false, tier(2), ""),
	}

	content := BuildContent(ContentInput{
		Title:     "unrelated title",
		Body:      "long discussion mentioning Acme News somewhere in the middle of the text",
		SelfHosts: selfHosts,
	})

	if FindSources(content, registry, Options{ScanBody: false}) != nil {
		t.Error("body channel should be ignored when ScanBody is false")
	}
	if FindSources(content, registry, Options{ScanBody: true}) == nil {
		t.Error("body channel should match when ScanBody is true")
	}
}

func TestFindSources_TierOrderingAndDedup(t *testing.T) {
	registry := []sources.Source{
		newSource("untiered", "Beta Wire", false, nil, ""),
		newSource("t1", "Alpha Daily", false, tier(1), ""),
		newSource("t2", "Gamma Times", false, tier(2), ""),
	}

	result := scanTitle("Beta Wire cites Alpha Daily and Gamma Times", registry)
	got := matchedIDs(result)
	want := []string{"t1", "t2", "untiered"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected order %v, got %v", want, got)
	}
}

func TestFindSources_DedupAcrossChannels(t *testing.T) {
	registry := []sources.Source{
		newSource("acme", "Acme News", false, tier(1), "acmeNews", "acme.example"),
	}

	content := BuildContent(ContentInput{
		Title:     "Acme News breaks the story (@acmeNews)",
		URL:       "https://acme.example/story",
		Links:     []string{"https://twitter.com/acmeNews/status/1"},
		Body:      "see [Acme News]",
		SelfHosts: selfHosts,
	})

	result := FindSources(content, registry, Options{ScanBody: true})
	if len(result) != 1 {
		t.Fatalf("source matching on several channels must appear once, got %d entries", len(result))
	}
}

func TestFindSources_NoMatchIsNil(t *testing.T) {
	registry := []sources.Source{
		newSource("acme", "Acme News", false, tier(1), ""),
	}

	result := scanTitle("completely unrelated", registry)
	if result != nil {
		t.Errorf("expected nil result for no matches, got %v", result)
	}

	if FindSources(nil, registry, Options{}) != nil {
		t.Error("nil content should yield nil result")
	}
}

func TestFindSources_Idempotent(t *testing.T) {
	registry := []sources.Source{
		newSource("c", "Gamma Times", false, tier(2), ""),
		newSource("a", "Alpha Daily", false, tier(1), ""),
		newSource("b", "Beta Wire", false, tier(1), ""),
		newSource("u1", "Delta Blog", false, nil, ""),
		newSource("u2", "Epsilon Zine", false, nil, ""),
	}
	content := BuildContent(ContentInput{
		Title:     "Alpha Daily, Beta Wire, Gamma Times, Delta Blog and Epsilon Zine",
		SelfHosts: selfHosts,
	})

	first := matchedIDs(FindSources(content, registry, Options{}))
	for i := 0; i < 10; i++ {
		again := matchedIDs(FindSources(content, registry, Options{}))
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, first, again)
		}
	}

	// Stable within equal tiers: registry order preserved.
	want := []string{"a", "b", "c", "u1", "u2"}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("expected stable order %v, got %v", want, first)
	}
}

func TestFindSources_EndToEnd(t *testing.T) {
	registry := []sources.Source{
		newSource("a", "Acme News", false, tier(2), "", "acme.example"),
	}

	// Title channel.
	content := BuildContent(ContentInput{Title: "Acme News publishes new report", SelfHosts: selfHosts})
	if FindSources(content, registry, Options{}) == nil {
		t.Error("expected title match")
	}

	// Domain channel with empty title.
	content = BuildContent(ContentInput{Title: "", URL: "https://acme.example/story", SelfHosts: selfHosts})
	if FindSources(content, registry, Options{}) == nil {
		t.Error("expected domain match")
	}

	// Lookalike domain is not a subdomain.
	content = BuildContent(ContentInput{Title: "", URL: "https://acme.example.fake.com/", SelfHosts: selfHosts})
	if FindSources(content, registry, Options{}) != nil {
		t.Error("lookalike domain must not match")
	}
}

func TestFindSources_RegistryLiteralsAreNotPatternSyntax(t *testing.T) {
	// Registry data containing regex metacharacters is treated as text.
	registry := []sources.Source{
		newSource("dots", "n.y.c. dispatch", false, nil, ""),
	}

	if scanTitle("the n.y.c. dispatch reports", registry) == nil {
		t.Error("dotted name should match literally")
	}
	if scanTitle("the nXyXcX dispatch reports", registry) != nil {
		t.Error("dots must not act as regex wildcards")
	}
}

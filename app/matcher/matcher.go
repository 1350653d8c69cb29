package matcher

import (
	"net/url"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lysyi3m/source-comb/app/sources"
)

// Options controls which channels a scan consults.
type Options struct {
	// ScanBody gates the body-text channel. Title, URL and link channels
	// are always scanned.
	ScanBody bool
}

// Hostnames on which a first path segment identifies an account.
var socialHosts = map[string]bool{
	"twitter.com": true,
	"x.com":       true,
}

// FindSources runs every registry entry against the four channels of the
// content (title, primary URL, embedded links, body) and returns the
// deduplicated matches sorted ascending by tier, untiered entries last.
// Returns nil when nothing matched.
//
// The function is pure: it reads only its inputs and allocates its own
// result, so concurrent scans over the same registry need no locking.
func FindSources(content *Content, registry []sources.Source, opts Options) []sources.Source {
	if content == nil {
		return nil
	}

	var matched []sources.Source
	seen := make(map[string]bool, len(registry))

	add := func(s sources.Source) {
		if !seen[s.ID] {
			seen[s.ID] = true
			matched = append(matched, s)
		}
	}

	for _, source := range registry {
		if matchesText(source, content.TitleNormalized) {
			add(source)
			continue
		}
		if content.URL != nil && matchesURL(source, content.URL) {
			add(source)
			continue
		}
		if matchesAnyLink(source, content.Links) {
			add(source)
			continue
		}
		if opts.ScanBody && matchesText(source, content.BodyNormalized) {
			add(source)
		}
	}

	if len(matched) == 0 {
		return nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return tierLess(matched[i].Tier, matched[j].Tier)
	})

	return matched
}

// matchesText checks the name predicate first, then the handle predicate.
// The text is expected to be pre-normalized.
func matchesText(source sources.Source, text string) bool {
	if text == "" {
		return false
	}

	if source.NameNormalized != "" {
		if re := namePattern(source.NameNormalized, source.NameIsCommon); re != nil && re.MatchString(text) {
			return true
		}
	}

	if source.TwitterNormalized != "" {
		if re := handlePattern(source.TwitterNormalized); re != nil && re.MatchString(text) {
			return true
		}
	}

	return false
}

func matchesURL(source sources.Source, u *url.URL) bool {
	if source.TwitterNormalized != "" && socialHosts[strings.ToLower(u.Hostname())] {
		if handleOwnsFirstSegment(u.Path, source.TwitterNormalized) {
			return true
		}
	}

	// Domains are validated lowercase in the registry; the hostname is
	// compared as received.
	host := u.Hostname()
	for _, domain := range source.Domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}

	return false
}

func matchesAnyLink(source sources.Source, links []*url.URL) bool {
	for _, link := range links {
		if matchesURL(source, link) {
			return true
		}
	}
	return false
}

// handleOwnsFirstSegment reports whether the handle occupies the entire
// first path segment: "/handle", "/handle/..." or "/handle " — but never
// "/handleX" or "/xhandle".
func handleOwnsFirstSegment(path, handle string) bool {
	p := strings.ToLower(path)
	prefix := "/" + handle
	if !strings.HasPrefix(p, prefix) {
		return false
	}

	rest := p[len(prefix):]
	if rest == "" || rest[0] == '/' {
		return true
	}

	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsSpace(r)
}

// tierLess orders tiered entries ascending and pushes untiered entries
// after every tiered one. Equal keys keep registry order (stable sort).
func tierLess(a, b *int) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return *a < *b
}

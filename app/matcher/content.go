package matcher

import (
	"net/url"
	"strings"

	"github.com/lysyi3m/source-comb/app/textnorm"
)

// Content is a single submission prepared for matching. Constructed fresh
// per scan and discarded after the caller consumes the result.
type Content struct {
	TitleNormalized string
	BodyNormalized  string
	URL             *url.URL
	Links           []*url.URL
}

// ContentInput carries the raw submission fields plus the hostnames owned
// by the hosting platform, which must never survive into URL or Links.
type ContentInput struct {
	Title     string
	Body      string
	URL       string
	Links     []string
	SelfHosts []string
}

// BuildContent normalizes the text channels and filters the URL channels.
// Self-referential URLs are dropped entirely. A leading "www." is stripped
// from the primary URL hostname but deliberately not from link hostnames:
// the primary URL arrives from the submission field while links are lifted
// verbatim out of the body text, and the two are treated exactly as
// received upstream.
func BuildContent(in ContentInput) *Content {
	content := &Content{
		TitleNormalized: textnorm.Normalize(in.Title),
	}

	if in.Body != "" {
		content.BodyNormalized = textnorm.Normalize(in.Body)
	}

	if u := parseExternalURL(in.URL, in.SelfHosts); u != nil {
		stripWWW(u)
		content.URL = u
	}

	for _, link := range in.Links {
		if u := parseExternalURL(link, in.SelfHosts); u != nil {
			content.Links = append(content.Links, u)
		}
	}

	return content
}

// parseExternalURL returns nil for empty, unparseable or self-referential
// URLs; a bad URL silently contributes nothing to the scan.
func parseExternalURL(raw string, selfHosts []string) *url.URL {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil
	}

	host := strings.ToLower(u.Hostname())
	for _, self := range selfHosts {
		if host == self {
			return nil
		}
	}

	return u
}

func stripWWW(u *url.URL) {
	host := u.Hostname()
	if len(host) > 4 && strings.EqualFold(host[:4], "www.") {
		stripped := host[4:]
		if port := u.Port(); port != "" {
			u.Host = stripped + ":" + port
		} else {
			u.Host = stripped
		}
	}
}

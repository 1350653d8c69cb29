package platform

import (
	"time"
)

// Post is one community submission as discovered from the new-post feed.
type Post struct {
	ID          string // Platform fullname, e.g. t3_abc123
	Title       string
	Author      string
	Permalink   string   // Comments page on the platform
	URL         string   // Outbound link target, empty for pure text posts
	BodyText    string   // Plain self-text
	Links       []string // Links embedded in the self-text, in order
	PublishedAt time.Time
}

// Hostnames owned by the hosting platform. URLs pointing at these must
// never reach the matcher as content URLs.
var selfHosts = []string{
	"reddit.com",
	"www.reddit.com",
	"old.reddit.com",
	"redd.it",
	"i.redd.it",
	"v.redd.it",
	"preview.redd.it",
}

func SelfHosts() []string {
	hosts := make([]string, len(selfHosts))
	copy(hosts, selfHosts)
	return hosts
}

package sources

// Registry entry types

type SourceType string

const (
	TypeJournalist SourceType = "journalist"
	TypeMedia      SourceType = "media"
	TypeAggregator SourceType = "aggregator"
)

// Source is an immutable registry entry describing a publisher, journalist
// or aggregator. NameNormalized and TwitterNormalized are derived once at
// load time; no code path mutates a Source after construction.
type Source struct {
	ID                string
	Name              string
	NameNormalized    string
	NameIsCommon      bool
	Type              SourceType
	Tier              *int // lower is more reliable, nil means untiered
	Organization      string
	Twitter           string
	TwitterNormalized string
	Domains           []string
}

// Configuration file types

type registryFile struct {
	Sources []rawSource `yaml:"sources"`
}

type rawSource struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	NameIsCommon bool     `yaml:"name_is_common"`
	Type         string   `yaml:"type"`
	Tier         *int     `yaml:"tier"`
	Organization string   `yaml:"organization"`
	Twitter      string   `yaml:"twitter"`
	Domains      []string `yaml:"domains"`
}

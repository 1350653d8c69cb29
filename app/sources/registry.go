package sources

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/source-comb/app/textnorm"
)

var handleRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)

var validTypes = map[string]bool{
	string(TypeJournalist): true,
	string(TypeMedia):      true,
	string(TypeAggregator): true,
}

// Registry loads and caches the source definitions from a directory of
// YAML files. The cached slice is replaced wholesale on reload; callers
// always receive a copy, so an in-flight scan never observes a mutation.
type Registry struct {
	sourcesDir string
	list       []Source
	byID       map[string]Source
	mu         sync.RWMutex
}

func NewRegistry(sourcesDir string) *Registry {
	return &Registry{
		sourcesDir: sourcesDir,
		byID:       make(map[string]Source),
	}
}

func (r *Registry) Run() error {
	if _, err := os.Stat(r.sourcesDir); os.IsNotExist(err) {
		return fmt.Errorf("sources directory does not exist: %s", r.sourcesDir)
	}

	files, err := filepath.Glob(filepath.Join(r.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}
	yamlFiles, err := filepath.Glob(filepath.Join(r.sourcesDir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("failed to find YAML files: %w", err)
	}
	files = append(files, yamlFiles...)

	list := make([]Source, 0)
	byID := make(map[string]Source)

	for _, file := range files {
		raws, err := parseFile(file)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		for i, raw := range raws {
			if err := validate(raw, byID); err != nil {
				return fmt.Errorf("invalid source at index %d in %s: %w", i, file, err)
			}

			source := newSource(raw)
			byID[source.ID] = source
			list = append(list, source)
		}

		slog.Debug("Source definitions loaded", "file", file, "count", len(raws))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = list
	r.byID = byID

	return nil
}

// Reload re-reads the sources directory. The previous registry stays in
// place when loading fails, so one bad edit cannot take the bot down.
func (r *Registry) Reload() error {
	return r.Run()
}

func (r *Registry) GetAll() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listCopy := make([]Source, len(r.list))
	copy(listCopy, r.list)
	return listCopy
}

func (r *Registry) GetByID(id string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, ok := r.byID[id]
	return source, ok
}

func (r *Registry) Dir() string {
	return r.sourcesDir
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

// newSource builds the immutable Source value, computing the normalized
// fields exactly once. The matcher never re-normalizes registry data.
func newSource(raw rawSource) Source {
	source := Source{
		ID:             raw.ID,
		Name:           raw.Name,
		NameNormalized: textnorm.Normalize(raw.Name),
		NameIsCommon:   raw.NameIsCommon,
		Type:           SourceType(raw.Type),
		Tier:           raw.Tier,
		Organization:   raw.Organization,
		Twitter:        raw.Twitter,
	}

	if raw.Twitter != "" {
		source.TwitterNormalized = textnorm.Normalize(raw.Twitter)
	}

	if len(raw.Domains) > 0 {
		source.Domains = make([]string, len(raw.Domains))
		copy(source.Domains, raw.Domains)
	}

	return source
}

func parseFile(path string) ([]rawSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return file.Sources, nil
}

func validate(raw rawSource, byID map[string]Source) error {
	if raw.ID == "" {
		return fmt.Errorf("source id is required")
	}
	if raw.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if _, exists := byID[raw.ID]; exists {
		return fmt.Errorf("duplicate source id: %s", raw.ID)
	}
	if !validTypes[raw.Type] {
		return fmt.Errorf("invalid source type: %s", raw.Type)
	}
	if raw.Tier != nil && *raw.Tier < 1 {
		return fmt.Errorf("tier must be >= 1, got %d", *raw.Tier)
	}
	if raw.Twitter != "" && !handleRe.MatchString(raw.Twitter) {
		return fmt.Errorf("invalid twitter handle: %s", raw.Twitter)
	}

	for _, domain := range raw.Domains {
		if domain == "" {
			return fmt.Errorf("empty domain entry")
		}
		if domain != strings.ToLower(domain) {
			return fmt.Errorf("domain must be lowercase: %s", domain)
		}
		if strings.ContainsAny(domain, "/: ") {
			return fmt.Errorf("domain must be a bare hostname: %s", domain)
		}
	}

	return nil
}

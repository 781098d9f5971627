package feature

import (
	_ "embed"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Feature keys known to both the frontend and the backend quota service
const (
	ATSCheck         = "ats_using"
	ResumeGeneration = "resume_generation"
	CoverLetter      = "cover_letter"
	JobFit           = "job_fit"
	LinkedInProfile  = "linkedin_profile"
	TemplateDownload = "template_download"
)

//go:embed features.yaml
var defaultCatalogYAML []byte

// Entry describes one quota-limited feature for display
type Entry struct {
	Key    string `yaml:"key"`
	Label  string `yaml:"label"`
	Prompt string `yaml:"prompt"` // Upgrade prompt shown when the feature is denied
}

// Catalog maps feature keys to their display entries
type Catalog struct {
	entries map[string]Entry
}

// ParseCatalog reads a catalog from YAML
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Features []Entry `yaml:"features"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "[ParseCatalog] unmarshal features")
	}

	c := &Catalog{entries: make(map[string]Entry, len(doc.Features))}
	for _, entry := range doc.Features {
		if entry.Key == "" {
			return nil, errors.New("[ParseCatalog] feature without key")
		}
		if _, exists := c.entries[entry.Key]; exists {
			return nil, errors.Errorf("[ParseCatalog] duplicate feature %q", entry.Key)
		}
		c.entries[entry.Key] = entry
	}
	return c, nil
}

// DefaultCatalog returns the catalog compiled into the binary
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the entry for key. Unknown keys get a generic entry so a
// denial can always be shown.
func (c *Catalog) Lookup(key string) Entry {
	if entry, ok := c.entries[key]; ok {
		return entry
	}
	return Entry{
		Key:    key,
		Label:  key,
		Prompt: "You've reached the limit of your current plan. Upgrade to continue.",
	}
}

// Keys returns the known feature keys in order
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package catalogue holds the care items proposed when a clinician builds
// an action plan.
package catalogue

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/textnorm"
)

//go:embed catalogue.yaml
var defaultCatalogue []byte

// Section is one column of the action plan screen.
type Section struct {
	Key   string   `yaml:"key" json:"key"`
	Title string   `yaml:"title" json:"title"`
	Items []string `yaml:"items" json:"items"`
}

// Catalogue is the set of proposable items.
type Catalogue struct {
	Sections []Section                      `yaml:"sections"`
	Profiles map[string]map[string][]string `yaml:"profiles"`
}

// Default returns the embedded catalogue.
func Default() (*Catalogue, error) {
	return Parse(defaultCatalogue)
}

// Parse decodes a YAML catalogue and checks that every section key is one
// of the plan sections.
func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}

	known := sectionKeys()
	for _, s := range c.Sections {
		if !slices.Contains(known, s.Key) {
			return nil, fmt.Errorf("unknown catalogue section %q", s.Key)
		}
	}
	for profile, sections := range c.Profiles {
		for key := range sections {
			if !slices.Contains(known, key) {
				return nil, fmt.Errorf("profile %q: unknown catalogue section %q", profile, key)
			}
		}
	}
	return &c, nil
}

func sectionKeys() []string {
	var s entities.PlanSections
	refs := s.ByKey()
	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = ref.Key
	}
	return keys
}

// Titles maps section keys to their display title.
func (c *Catalogue) Titles() map[string]string {
	titles := make(map[string]string, len(c.Sections))
	for _, s := range c.Sections {
		titles[s.Key] = s.Title
	}
	return titles
}

// Propose returns the base items followed by the items of every matching
// profile, without duplicates. Profile names match ignoring case and accents.
func (c *Catalogue) Propose(profiles []string) entities.PlanSections {
	var out entities.PlanSections
	for _, ref := range out.ByKey() {
		*ref.Items = []string{}
	}

	add := func(key string, items []string) {
		for _, ref := range out.ByKey() {
			if ref.Key != key {
				continue
			}
			for _, item := range items {
				if !slices.Contains(*ref.Items, item) {
					*ref.Items = append(*ref.Items, item)
				}
			}
		}
	}

	for _, s := range c.Sections {
		add(s.Key, s.Items)
	}
	for _, name := range profiles {
		specific, ok := c.lookupProfile(name)
		if !ok {
			continue
		}
		// map order is random; keep section order stable
		for _, key := range sectionKeys() {
			add(key, specific[key])
		}
	}
	return out
}

func (c *Catalogue) lookupProfile(name string) (map[string][]string, bool) {
	if items, ok := c.Profiles[name]; ok {
		return items, true
	}
	for profile, items := range c.Profiles {
		if textnorm.Equal(profile, name) {
			return items, true
		}
	}
	return nil, false
}

// KnownProfiles lists the profile names that add specific items.
func (c *Catalogue) KnownProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

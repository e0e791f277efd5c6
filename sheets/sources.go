// Package sheets loads course grades from Google Sheets tabs published as CSV.
package sheets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is a course whose grades live in a published sheet.
type Source struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"-"`
}

type sourcesFile struct {
	Courses []Source `yaml:"courses"`
}

// Catalog is the set of configured sources, in file order.
type Catalog struct {
	sources []Source
	byID    map[string]Source
}

// NewCatalog indexes sources by id. Duplicate or incomplete entries are rejected.
func NewCatalog(sources []Source) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Source, len(sources))}
	for i, s := range sources {
		s.ID = strings.TrimSpace(s.ID)
		s.Name = strings.TrimSpace(s.Name)
		s.URL = strings.TrimSpace(s.URL)
		if s.ID == "" || s.Name == "" || s.URL == "" {
			return nil, fmt.Errorf("course source #%d needs id, name and url", i+1)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate course source id %q", s.ID)
		}
		c.byID[s.ID] = s
		c.sources = append(c.sources, s)
	}
	return c, nil
}

// LoadSources reads the YAML course list. A missing file is an empty catalog.
func LoadSources(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewCatalog(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read course sources %s: %w", path, err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse course sources %s: %w", path, err)
	}
	return NewCatalog(f.Courses)
}

// Get returns the source with the given id.
func (c *Catalog) Get(id string) (Source, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// All returns the sources in file order.
func (c *Catalog) All() []Source {
	return append([]Source{}, c.sources...)
}

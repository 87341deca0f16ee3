// Package sysconfig holds the two-level section/key/value document used both
// for the raw bootstrap configuration and for the normalized output.
//
// Section names are case-sensitive. Keys are case-insensitive and stored
// upper-cased. Section and key order is preserved.
package sysconfig

import (
	"sort"
	"strings"
)

// Section is an ordered set of key/value pairs
type Section struct {
	name   string
	keys   []string
	values map[string]string
}

func newSection(name string) *Section {
	return &Section{name: name, values: make(map[string]string)}
}

// Name returns the section name
func (s *Section) Name() string {
	return s.name
}

// Keys returns the keys in insertion order
func (s *Section) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Has reports whether key is present
func (s *Section) Has(key string) bool {
	_, ok := s.values[normalizeKey(key)]
	return ok
}

// Get returns the value for key
func (s *Section) Get(key string) (string, bool) {
	v, ok := s.values[normalizeKey(key)]
	return v, ok
}

// Set stores value under key, keeping the original position of an existing key
func (s *Section) Set(key, value string) {
	key = normalizeKey(key)
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Len returns the number of keys
func (s *Section) Len() int {
	return len(s.keys)
}

// Config is an ordered mapping of section name to section
type Config struct {
	order    []string
	sections map[string]*Section
}

// New creates an empty configuration document
func New() *Config {
	return &Config{sections: make(map[string]*Section)}
}

// FromMap builds a document from nested maps. Sections and keys are added
// in sorted order since map iteration order is undefined.
func FromMap(m map[string]map[string]string) *Config {
	c := New()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := c.AddSection(name)
		keys := make([]string, 0, len(m[name]))
		for k := range m[name] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			s.Set(k, m[name][k])
		}
	}
	return c
}

// AddSection returns the named section, creating it if needed
func (c *Config) AddSection(name string) *Section {
	if s, ok := c.sections[name]; ok {
		return s
	}
	s := newSection(name)
	c.sections[name] = s
	c.order = append(c.order, name)
	return s
}

// Section returns the named section
func (c *Config) Section(name string) (*Section, bool) {
	s, ok := c.sections[name]
	return s, ok
}

// HasSection reports whether the named section exists
func (c *Config) HasSection(name string) bool {
	_, ok := c.sections[name]
	return ok
}

// HasOption reports whether key exists in the named section
func (c *Config) HasOption(section, key string) bool {
	s, ok := c.sections[section]
	return ok && s.Has(key)
}

// Get returns the value of key in the named section
func (c *Config) Get(section, key string) (string, bool) {
	s, ok := c.sections[section]
	if !ok {
		return "", false
	}
	return s.Get(key)
}

// Set stores a value, creating the section if needed
func (c *Config) Set(section, key, value string) {
	c.AddSection(section).Set(key, value)
}

// SectionNames returns section names in insertion order
func (c *Config) SectionNames() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of sections
func (c *Config) Len() int {
	return len(c.order)
}

// Map returns a copy of the document as nested maps
func (c *Config) Map() map[string]map[string]string {
	out := make(map[string]map[string]string, len(c.order))
	for _, name := range c.order {
		s := c.sections[name]
		m := make(map[string]string, len(s.keys))
		for _, k := range s.keys {
			m[k] = s.values[k]
		}
		out[name] = m
	}
	return out
}

// Equal reports whether both documents hold the same sections, keys and values
func (c *Config) Equal(other *Config) bool {
	if c.Len() != other.Len() {
		return false
	}
	for _, name := range c.order {
		a := c.sections[name]
		b, ok := other.sections[name]
		if !ok || a.Len() != b.Len() {
			return false
		}
		for _, k := range a.keys {
			if v, ok := b.values[k]; !ok || v != a.values[k] {
				return false
			}
		}
	}
	return true
}

func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

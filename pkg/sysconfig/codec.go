package sysconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

var iniLoadOptions = ini.LoadOptions{
	InsensitiveKeys:     true,
	IgnoreInlineComment: true,
}

// LoadFile reads a configuration document. Files ending in .yaml or .yml are
// decoded as YAML, everything else as INI.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseINI(data)
	}
}

// ParseINI decodes an INI document. The implicit DEFAULT section is dropped
// when empty.
func ParseINI(data []byte) (*Config, error) {
	f, err := ini.LoadSources(iniLoadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("parsing ini: %w", err)
	}
	c := New()
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		s := c.AddSection(sec.Name())
		for _, k := range sec.Keys() {
			s.Set(k.Name(), k.Value())
		}
	}
	return c, nil
}

// WriteINI encodes the document as INI
func (c *Config) WriteINI(w io.Writer) error {
	f := ini.Empty(iniLoadOptions)
	for _, name := range c.order {
		sec, err := f.NewSection(name)
		if err != nil {
			return fmt.Errorf("creating section %s: %w", name, err)
		}
		s := c.sections[name]
		for _, k := range s.keys {
			if _, err := sec.NewKey(k, s.values[k]); err != nil {
				return fmt.Errorf("writing %s/%s: %w", name, k, err)
			}
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// ParseYAML decodes a YAML mapping of sections to mappings of scalar values
func ParseYAML(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	c := New()
	if len(root.Content) == 0 {
		return c, nil
	}
	if err := c.UnmarshalYAML(root.Content[0]); err != nil {
		return nil, err
	}
	return c, nil
}

// UnmarshalYAML implements yaml.Unmarshaler, keeping document order
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	if c.sections == nil {
		c.sections = make(map[string]*Section)
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of sections", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		body := node.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: section %s must be a mapping", body.Line, name)
		}
		s := c.AddSection(name)
		for j := 0; j+1 < len(body.Content); j += 2 {
			v := body.Content[j+1]
			if v.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: %s/%s must be a scalar", v.Line, name, body.Content[j].Value)
			}
			s.Set(body.Content[j].Value, v.Value)
		}
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler, keeping document order
func (c *Config) MarshalYAML() (interface{}, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range c.order {
		body := &yaml.Node{Kind: yaml.MappingNode}
		s := c.sections[name]
		for _, k := range s.keys {
			body.Content = append(body.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: k},
				&yaml.Node{Kind: yaml.ScalarNode, Value: s.values[k], Style: yaml.DoubleQuotedStyle},
			)
		}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name}, body)
	}
	return root, nil
}

// MarshalJSON implements json.Marshaler, keeping document order
func (c *Config) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteString(":{")
		s := c.sections[name]
		for j, k := range s.keys {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(&buf, k); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := writeJSONString(&buf, s.values[k]); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// Format names an output encoding
type Format string

const (
	FormatINI  Format = "ini"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates an output format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatINI, FormatYAML, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (use ini, yaml or json)", s)
}

// Encode writes the document in the requested format
func (c *Config) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return err
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	default:
		return c.WriteINI(w)
	}
}

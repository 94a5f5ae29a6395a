// Package messages holds the localized strings the portal shows to users.
package messages

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed ru.yaml
var ruYAML []byte

// Catalog maps dotted keys such as "contest.finished" to text.
type Catalog struct {
	entries map[string]string
}

// Parse builds a catalog from nested YAML mappings of strings.
func Parse(data []byte) (*Catalog, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	c := &Catalog{entries: make(map[string]string)}
	if err := c.flatten("", tree); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) flatten(prefix string, node map[string]any) error {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := v.(type) {
		case string:
			c.entries[key] = v
		case map[string]any:
			if err := c.flatten(key, v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("catalog key %q: unsupported value %T", key, v)
		}
	}
	return nil
}

// Get returns the text for key, or the key itself when it is missing.
func (c *Catalog) Get(key string) string {
	if s, ok := c.entries[key]; ok {
		return s
	}
	return key
}

// Format applies args to the text for key.
func (c *Catalog) Format(key string, args ...any) string {
	return fmt.Sprintf(c.Get(key), args...)
}

// Has reports whether key is defined.
func (c *Catalog) Has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Keys returns every defined key with the given prefix.
func (c *Catalog) Keys(prefix string) []string {
	var keys []string
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

var ru = mustParse(ruYAML)

func mustParse(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return c
}

// RU is the built-in Russian catalog.
func RU() *Catalog { return ru }

// Get looks key up in the built-in catalog.
func Get(key string) string { return ru.Get(key) }

// Format looks key up in the built-in catalog and applies args.
func Format(key string, args ...any) string { return ru.Format(key, args...) }

// Package messages holds the user-facing texts of the bot. Defaults are
// embedded; a YAML file can override any subset of keys.
package messages

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var defaultMessages []byte

type Catalog struct {
	entries map[string]string
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := parse(defaultMessages)
	if err != nil {
		panic(fmt.Sprintf("embedded messages.yaml is invalid: %v", err))
	}
	return c
}

// Load returns the embedded catalog with the keys from path layered on top.
// An empty path yields the defaults.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages file %s: %w", path, err)
	}

	overrides, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse messages file %s: %w", path, err)
	}
	// A blank override would otherwise surface as a panic in MustGet the
	// first time the key is rendered.
	for _, k := range slices.Sorted(maps.Keys(overrides.entries)) {
		v := overrides.entries[k]
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("messages file %s: %q must not be empty", path, k)
		}
		c.entries[k] = v
	}
	return c, nil
}

func parse(data []byte) (*Catalog, error) {
	parsed := make(map[string]string)
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	return &Catalog{entries: parsed}, nil
}

func (c *Catalog) Get(key string) string {
	return c.entries[key]
}

func (c *Catalog) MustGet(key string) string {
	val := c.Get(key)
	if val == "" {
		panic(fmt.Sprintf("message %q not found", key))
	}
	return val
}

// Format renders key, replacing each {name} placeholder. args are
// name/value pairs.
func (c *Catalog) Format(key string, args ...string) string {
	text := c.MustGet(key)
	if len(args) < 2 {
		return text
	}

	pairs := make([]string, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, "{"+args[i]+"}", args[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// GetAll returns a copy of all loaded messages.
func (c *Catalog) GetAll() map[string]string {
	cp := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		cp[k] = v
	}
	return cp
}

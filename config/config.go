// Package config provides the hierarchical key/value tree consumed by
// the pipeline assembly engine. Keys are paths whose blocks are
// separated by "/"; a block name itself may contain any other
// character, which is how "<process>.<port>" endpoint keys are nested
// under "_edge_by_conn".
package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/viper"
)

// Separator splits blocks inside a key path.
const Separator = "/"

// ErrReadOnly is returned when a write targets a key that has been
// marked read only.
var ErrReadOnly = errors.New("config key is read only")

type entry struct {
	value    string
	readOnly bool
}

// Config is a flat view of a configuration tree: full key paths mapped
// to string values, with per-key read-only marks.
type Config struct {
	entries map[string]entry
}

// New returns an empty configuration.
func New() *Config {
	return &Config{entries: make(map[string]entry)}
}

// FromMap flattens a nested map into a configuration. Nested
// map[string]any values become sub-blocks; scalar leaves are rendered
// with fmt.Sprint.
func FromMap(m map[string]any) *Config {
	c := New()
	flattenInto(c.entries, "", m)
	return c
}

func flattenInto(into map[string]entry, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + Separator + k
		}
		if sub, ok := v.(map[string]any); ok {
			flattenInto(into, key, sub)
			continue
		}
		into[key] = entry{value: fmt.Sprint(v)}
	}
}

// FromViper converts the settings held by a viper instance.
func FromViper(v *viper.Viper) *Config {
	return FromMap(v.AllSettings())
}

// Load reads a configuration file (any format viper understands) into
// a tree. The viper instance uses "/" as its key delimiter so block
// names containing "." survive intact.
func Load(path string) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(Separator))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}
	return FromViper(v), nil
}

// Subblock returns a detached copy of the entries beneath key. The
// result never shares state with the receiver and is never nil; a
// missing block yields an empty configuration. Read-only marks are not
// carried into the copy.
func (c *Config) Subblock(key string) *Config {
	sub := New()
	prefix := key + Separator
	for k, e := range c.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			sub.entries[k[len(prefix):]] = entry{value: e.value}
		}
	}
	return sub
}

// Merge overlays the other configuration onto the receiver. Existing
// keys are overwritten unless marked read only, in which case the
// merge fails.
func (c *Config) Merge(other *Config) error {
	if other == nil {
		return nil
	}
	for _, k := range other.Keys() {
		if err := c.SetValue(k, other.entries[k].value); err != nil {
			return fmt.Errorf("merge key %q: %w", k, err)
		}
	}
	return nil
}

// SetValue stores a value at key. Fails with ErrReadOnly if the key
// has been marked read only.
func (c *Config) SetValue(key, value string) error {
	if c.entries[key].readOnly {
		return fmt.Errorf("%w: %q", ErrReadOnly, key)
	}
	c.entries[key] = entry{value: value}
	return nil
}

// MarkReadOnly freezes a key against further writes. Marking a missing
// key is a no-op.
func (c *Config) MarkReadOnly(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.readOnly = true
	c.entries[key] = e
}

// Has reports whether the key holds a value.
func (c *Config) Has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// GetString returns the value at key, or def when absent.
func (c *Config) GetString(key, def string) string {
	if e, ok := c.entries[key]; ok {
		return e.value
	}
	return def
}

// GetBool returns the value at key parsed as a boolean, or def when
// absent or unparsable.
func (c *Config) GetBool(key string, def bool) bool {
	e, ok := c.entries[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(e.value)
	if err != nil {
		return def
	}
	return b
}

// GetInt returns the value at key parsed as an integer, or def when
// absent or unparsable.
func (c *Config) GetInt(key string, def int) int {
	e, ok := c.entries[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(e.value)
	if err != nil {
		return def
	}
	return n
}

// Keys returns all key paths in sorted order.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

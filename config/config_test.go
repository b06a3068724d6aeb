package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestFromMap(t *testing.T) {
	c := FromMap(map[string]any{
		"top": "value",
		"_edge": map[string]any{
			"capacity":   4,
			"dependency": true,
		},
	})

	assert.Equal(t, "value", c.GetString("top", ""))
	assert.Equal(t, 4, c.GetInt("_edge/capacity", 0))
	assert.True(t, c.GetBool("_edge/dependency", false))
}

func TestSubblock(t *testing.T) {
	t.Run("returns the nested entries", func(t *testing.T) {
		c := FromMap(map[string]any{
			"_edge_by_conn": map[string]any{
				"src.o": map[string]any{
					"capacity": 16,
				},
			},
		})

		sub := c.Subblock("_edge_by_conn").Subblock("src.o")
		assert.Equal(t, 16, sub.GetInt("capacity", 0))
	})

	t.Run("missing block is empty, not nil", func(t *testing.T) {
		c := New()
		sub := c.Subblock("nope")
		assert.NotZero(t, sub)
		assert.Equal(t, 0, len(sub.Keys()))
	})

	t.Run("detached from the parent", func(t *testing.T) {
		c := FromMap(map[string]any{
			"block": map[string]any{"k": "old"},
		})

		sub := c.Subblock("block")
		assert.NoError(t, sub.SetValue("k", "new"))

		assert.Equal(t, "old", c.GetString("block/k", ""))
	})
}

func TestMerge(t *testing.T) {
	t.Run("overlay wins", func(t *testing.T) {
		base := FromMap(map[string]any{"k": "base", "keep": "yes"})
		over := FromMap(map[string]any{"k": "over"})

		assert.NoError(t, base.Merge(over))
		assert.Equal(t, "over", base.GetString("k", ""))
		assert.Equal(t, "yes", base.GetString("keep", ""))
	})

	t.Run("read only keys refuse the overlay", func(t *testing.T) {
		base := FromMap(map[string]any{"k": "base"})
		base.MarkReadOnly("k")

		err := base.Merge(FromMap(map[string]any{"k": "over"}))
		assert.True(t, errors.Is(err, ErrReadOnly))
	})

	t.Run("nil merge is a no-op", func(t *testing.T) {
		base := New()
		assert.NoError(t, base.Merge(nil))
	})
}

func TestSetValue(t *testing.T) {
	c := New()
	assert.NoError(t, c.SetValue("k", "v"))
	assert.Equal(t, "v", c.GetString("k", ""))

	c.MarkReadOnly("k")
	err := c.SetValue("k", "other")
	assert.True(t, errors.Is(err, ErrReadOnly))
	assert.Equal(t, "v", c.GetString("k", ""))
}

func TestGetters(t *testing.T) {
	c := FromMap(map[string]any{
		"str":  "x",
		"num":  "12",
		"flag": "true",
		"junk": "not a number",
	})

	assert.Equal(t, "fallback", c.GetString("missing", "fallback"))
	assert.Equal(t, 12, c.GetInt("num", 0))
	assert.Equal(t, 7, c.GetInt("junk", 7))
	assert.True(t, c.GetBool("flag", false))
	assert.False(t, c.GetBool("junk", false))
	assert.True(t, c.Has("str"))
	assert.False(t, c.Has("missing"))
}

func TestKeys(t *testing.T) {
	c := FromMap(map[string]any{
		"b": "2",
		"a": "1",
		"nested": map[string]any{
			"k": "3",
		},
	})

	assert.Equal(t, []string{"a", "b", "nested/k"}, c.Keys())
}

func TestLoad(t *testing.T) {
	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pipeline.yaml")
		content := "_edge:\n  capacity: 8\n  dependency: true\n"
		assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		c, err := Load(path)
		assert.NoError(t, err)
		assert.Equal(t, 8, c.GetInt("_edge/capacity", 0))
		assert.True(t, c.GetBool("_edge/dependency", false))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

package msgcat

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var defaultFiles embed.FS

// Catalog holds player-facing strings keyed by dotted path. Scalar leaves are
// text/template sources; sequence leaves are pools drawn from with Pick.
type Catalog struct {
	mu    sync.RWMutex
	texts map[string]string
	pools map[string][]string
}

// New loads the embedded defaults, then YAML overrides from dir when set.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{texts: make(map[string]string), pools: make(map[string][]string)}

	raw, err := fs.ReadFile(defaultFiles, "messages.en.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded messages: %w", err)
	}
	if err := c.apply(raw); err != nil {
		return nil, fmt.Errorf("parse embedded messages: %w", err)
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := c.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read messages dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := c.apply(b); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
	}
	return nil
}

func (c *Catalog) apply(b []byte) error {
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return err
	}
	texts := make(map[string]string)
	pools := make(map[string][]string)
	if err := flatten(m, "", texts, pools); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range texts {
		c.texts[k] = v
		delete(c.pools, k)
	}
	for k, v := range pools {
		c.pools[k] = v
		delete(c.texts, k)
	}
	return nil
}

func flatten(src any, prefix string, texts map[string]string, pools map[string][]string) error {
	switch v := src.(type) {
	case map[string]any:
		for k, vv := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flatten(vv, key, texts, pools); err != nil {
				return err
			}
		}
		return nil
	case string:
		if prefix == "" {
			return errors.New("string value without key")
		}
		texts[prefix] = v
		return nil
	case []any:
		pool := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("pool %s[%d]: want string, got %T", prefix, i, item)
			}
			pool = append(pool, s)
		}
		if len(pool) == 0 {
			return fmt.Errorf("pool %s is empty", prefix)
		}
		pools[prefix] = pool
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported value at %s: %T", prefix, v)
	}
}

// Render executes the template stored at key. Missing keys and missing
// template fields are errors; callers keep a fallback.
func (c *Catalog) Render(key string, data any) (string, error) {
	c.mu.RLock()
	src, ok := c.texts[strings.TrimSpace(key)]
	c.mu.RUnlock()
	if !ok || strings.TrimSpace(src) == "" {
		return "", fmt.Errorf("message not found: %s", key)
	}
	t, err := template.New(key).Option("missingkey=error").Parse(src)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Pick returns pool[intn(len(pool))] for the pool at key.
func (c *Catalog) Pick(key string, intn func(n int) int) (string, error) {
	c.mu.RLock()
	pool := c.pools[strings.TrimSpace(key)]
	c.mu.RUnlock()
	if len(pool) == 0 {
		return "", fmt.Errorf("message pool not found: %s", key)
	}
	return pool[intn(len(pool))], nil
}

// Pool returns a copy of the pool at key.
func (c *Catalog) Pool(key string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.pools[strings.TrimSpace(key)]...)
}

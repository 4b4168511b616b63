// Package catalog loads the read-only goal template catalog from YAML.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/storage"
	"github.com/benvon/smart-goals/internal/validation"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var builtinTemplates []byte

// ErrTemplateNotFound is returned for an unknown template id
var ErrTemplateNotFound = fmt.Errorf("goal template %w", storage.ErrNotFound)

// file is the on-disk catalog layout
type file struct {
	Templates []*models.GoalTemplate `yaml:"templates"`
}

// Catalog is an immutable, ordered set of goal templates. Callers always
// receive copies.
type Catalog struct {
	templates []*models.GoalTemplate
	byID      map[string]*models.GoalTemplate
}

var _ storage.TemplateStore = (*Catalog)(nil)

// Default returns the built-in catalog
func Default() (*Catalog, error) {
	return Parse(builtinTemplates)
}

// Load returns the catalog at path, or the built-in catalog when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse template catalog: %w", err)
	}

	c := &Catalog{
		templates: make([]*models.GoalTemplate, 0, len(f.Templates)),
		byID:      make(map[string]*models.GoalTemplate, len(f.Templates)),
	}
	var errs []error
	for i, t := range f.Templates {
		if t == nil {
			errs = append(errs, fmt.Errorf("template %d: empty entry", i))
			continue
		}
		if err := validation.Validate.Struct(t); err != nil {
			errs = append(errs, fmt.Errorf("template %d (%q): %w", i, t.ID, err))
			continue
		}
		if _, dup := c.byID[t.ID]; dup {
			errs = append(errs, fmt.Errorf("template %d: duplicate id %q", i, t.ID))
			continue
		}
		if t.Tags == nil {
			t.Tags = []string{}
		}
		c.templates = append(c.templates, t)
		c.byID[t.ID] = t
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid template catalog: %w", errors.Join(errs...))
	}
	return c, nil
}

// Len returns the number of templates
func (c *Catalog) Len() int {
	return len(c.templates)
}

// Templates returns copies of all templates in catalog order
func (c *Catalog) Templates(ctx context.Context) ([]*models.GoalTemplate, error) {
	out := make([]*models.GoalTemplate, len(c.templates))
	for i, t := range c.templates {
		out[i] = t.Clone()
	}
	return out, nil
}

// Template returns a copy of one template
func (c *Catalog) Template(ctx context.Context, id string) (*models.GoalTemplate, error) {
	t, ok := c.byID[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return t.Clone(), nil
}

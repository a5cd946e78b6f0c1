// Package catalog reads and validates the level catalog: the ordered level
// sequence, the shape library and the question pools.
package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"classroom-levels-service/internal/domain"
)

// Parse decodes a YAML or JSON catalog.
func Parse(data []byte) (domain.Catalog, error) {
	var c domain.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return domain.Catalog{}, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}
	return c, nil
}

// Load reads and validates the catalog at path.
func Load(path string) (domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return domain.Catalog{}, err
	}
	if err := Validate(c); err != nil {
		return domain.Catalog{}, err
	}
	return c, nil
}

// Validate rejects catalogs that could only fail at run time.
func Validate(c domain.Catalog) error {
	if len(c.LevelSequence) == 0 {
		return fmt.Errorf("%w: empty level sequence", domain.ErrInvalidCatalog)
	}

	seen := make(map[string]bool, len(c.LevelSequence))
	for i, lvl := range c.LevelSequence {
		if lvl.ID == "" {
			return fmt.Errorf("%w: level %d has no id", domain.ErrInvalidCatalog, i)
		}
		if seen[lvl.ID] {
			return fmt.Errorf("%w: duplicate level id %q", domain.ErrInvalidCatalog, lvl.ID)
		}
		seen[lvl.ID] = true
		if lvl.TimeLimit < 0 {
			return fmt.Errorf("%w: level %q: negative time limit", domain.ErrInvalidCatalog, lvl.ID)
		}

		switch lvl.Type {
		case domain.LevelFormation:
			if _, ok := c.Shapes[lvl.ShapeKey]; !ok {
				return fmt.Errorf("%w: level %q: unknown shape %q", domain.ErrInvalidCatalog, lvl.ID, lvl.ShapeKey)
			}
		case domain.LevelQuiz:
			if err := validatePool(lvl); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: level %q: %w %q", domain.ErrInvalidCatalog, lvl.ID, domain.ErrUnknownLevelType, lvl.Type)
		}
	}
	return nil
}

func validatePool(lvl domain.LevelConfig) error {
	if len(lvl.Pool) == 0 {
		return fmt.Errorf("%w: level %q: empty question pool", domain.ErrInvalidCatalog, lvl.ID)
	}
	for i, q := range lvl.Pool {
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: level %q: question %d has no options", domain.ErrInvalidCatalog, lvl.ID, i)
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return fmt.Errorf("%w: level %q: question %d answer %d out of range", domain.ErrInvalidCatalog, lvl.ID, i, q.Answer)
		}
	}
	return nil
}

// FileLoader serves the catalog stored in a single file.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// LoadCatalog rereads the file on every call. A file without an id answers to any id.
func (l *FileLoader) LoadCatalog(_ context.Context, catalogID string) (domain.Catalog, error) {
	c, err := Load(l.path)
	if err != nil {
		return domain.Catalog{}, err
	}
	if c.ID == "" {
		c.ID = catalogID
	}
	if c.ID != catalogID {
		return domain.Catalog{}, fmt.Errorf("%w: %q (file holds %q)", domain.ErrCatalogNotFound, catalogID, c.ID)
	}
	return c, nil
}

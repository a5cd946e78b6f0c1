package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"classroom-levels-service/internal/domain"
)

// Importer upserts catalogs into the catalogs table.
type Importer struct {
	db *bun.DB
}

func NewImporter(db *bun.DB) *Importer {
	return &Importer{db: db}
}

func (i *Importer) ImportCatalog(ctx context.Context, c domain.Catalog) error {
	if c.ID == "" {
		return fmt.Errorf("import catalog: %w: missing id", domain.ErrInvalidCatalog)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	_, err = i.db.ExecContext(ctx,
		`INSERT INTO catalogs (id, data, updated_at) VALUES (?, ?::jsonb, now())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		c.ID, string(data))
	if err != nil {
		return fmt.Errorf("import catalog %q: %w", c.ID, err)
	}
	return nil
}

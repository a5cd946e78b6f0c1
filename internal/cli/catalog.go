package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"classroom-levels-service/internal/catalog"
	"classroom-levels-service/internal/config"
	pgloader "classroom-levels-service/internal/infra/postgres"
)

// NewValidateCmd checks a catalog file without starting anything.
func NewValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [catalog-file]",
		Short: "Validate a level catalog (defaults to catalog.path from the config)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := catalogPath(*configPath, args)
			if err != nil {
				return err
			}
			c, err := catalog.Load(path)
			if err != nil {
				return err
			}
			if err := catalog.Validate(c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d levels, %d shapes ok\n", path, len(c.LevelSequence), len(c.Shapes))
			return nil
		},
	}
}

// NewImportCatalogCmd stores a catalog file in Postgres.
func NewImportCatalogCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import-catalog [catalog-file]",
		Short: "Validate a catalog file and upsert it into Postgres",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importCatalog(cmd.Context(), *configPath, args)
		},
	}
}

func importCatalog(ctx context.Context, configPath string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	path := cfg.Catalog.Path
	if len(args) == 1 {
		path = args[0]
	}

	c, err := catalog.Load(path)
	if err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = cfg.Catalog.ID
	}
	if err := catalog.Validate(c); err != nil {
		return err
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := pgloader.NewImporter(db).ImportCatalog(ctx, c); err != nil {
		return err
	}
	log.Info().Str("catalog", c.ID).Int("levels", len(c.LevelSequence)).Msg("catalog imported")
	return nil
}

func catalogPath(configPath string, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	return cfg.Catalog.Path, nil
}

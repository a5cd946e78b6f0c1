package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"classroom-levels-service/internal/app"
	"classroom-levels-service/internal/catalog"
	"classroom-levels-service/internal/config"
	"classroom-levels-service/internal/infra/memory"
	pgloader "classroom-levels-service/internal/infra/postgres"
	infraredis "classroom-levels-service/internal/infra/redis"
	transport "classroom-levels-service/internal/transport/http"
	"classroom-levels-service/internal/transport/hub"
	"classroom-levels-service/internal/transport/tcp"
)

// NewStartCmd builds the CLI subcommand to start the coordinator.
func NewStartCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the classroom coordinator and the operator console",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), flags)
		},
	}
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if flags.port != "" {
		cfg.Server.Port = flags.port
	}
	if flags.httpPort != "" {
		cfg.Server.HTTPPort = flags.httpPort
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runServer(ctx context.Context, flags *rootFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	setupLogging(flags.debug, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var loader memory.CatalogLoader = catalog.NewFileLoader(cfg.Catalog.Path)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgloader.NewCatalogLoader(pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalogs app.CatalogRepository
	if redisClient != nil {
		catalogs = infraredis.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		catalogs = memory.NewCatalogRepository(loader, catalogTTL)
	}

	// configuration faults stop the process before any student connects
	cat, err := catalogs.GetCatalog(ctx, cfg.Catalog.ID)
	if err != nil {
		return fmt.Errorf("load catalog %q: %w", cfg.Catalog.ID, err)
	}
	if err := catalog.Validate(cat); err != nil {
		return err
	}
	log.Info().Str("catalog", cfg.Catalog.ID).Int("levels", len(cat.LevelSequence)).Msg("catalog loaded")

	h := hub.New()
	coord := app.NewCoordinator(h, catalogs, app.Options{
		CatalogID: cfg.Catalog.ID,
		GridSize:  cfg.Session.GridSize,
	})

	g, gctx := errgroup.WithContext(ctx)

	tcpServer := tcp.NewServer(cfg.TCPAddr(), coord, h, cfg.Session.SendBuffer)
	g.Go(func() error {
		return tcpServer.ListenAndServe(gctx)
	})

	if addr := cfg.HTTPAddr(); addr != "" {
		ws := transport.NewWSHandler(coord, h, cfg.Session.SendBuffer)
		server := &http.Server{
			Addr:              addr,
			Handler:           transport.NewRouter(ws, coord, cfg.JoinAddr()),
			ReadHeaderTimeout: 15 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("addr", addr).Msg("http transport listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	tick := config.TTLDuration(cfg.Session.Tick, app.DefaultTickInterval)
	g.Go(func() error {
		coord.Run(gctx, tick)
		return nil
	})

	if redisClient != nil {
		store := infraredis.NewStatusStore(redisClient, cfg.Catalog.ID, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
		g.Go(func() error {
			app.NewStatusMirror(store, coord.Statuses()).Run(gctx)
			clearCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := store.Clear(clearCtx); err != nil {
				log.Warn().Err(err).Msg("clear session status")
			}
			return nil
		})
	}

	// stdin blocks forever, so the console stays outside the group
	go RunConsole(gctx, os.Stdin, os.Stdout, coord, cancel)

	err = g.Wait()
	log.Info().Msg("coordinator stopped")
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/football-auction-backend/internal/catalog"
	"github.com/DoyleJ11/football-auction-backend/internal/config"
	"github.com/DoyleJ11/football-auction-backend/internal/engine"
	"github.com/DoyleJ11/football-auction-backend/internal/httpapi"
	"github.com/DoyleJ11/football-auction-backend/internal/hub"
	"github.com/DoyleJ11/football-auction-backend/internal/lobby"
	"github.com/DoyleJ11/football-auction-backend/internal/logging"
	"github.com/DoyleJ11/football-auction-backend/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			err = multierr.Append(err, c.Close())
		}
	}()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		closers = append(closers, closerFunc(pool.Close))
	}

	cat, err := openCatalog(ctx, cfg, pool)
	if err != nil {
		return err
	}
	blob, notifier, err := openStore(ctx, cfg, pool, log)
	if err != nil {
		return err
	}

	supplier := catalog.NewSupplier(cat)
	factory := func(ctx context.Context, code string) (*lobby.Lobby, error) {
		key := store.LobbyKey(code)
		lcfg := lobby.Config{
			Rules:    cfg.Rules,
			Supplier: supplier,
			Store:    store.NewGameStore(blob, key),
			Logger:   log,
		}
		if notifier != nil {
			lcfg.Notifier = notifier(key)
		}
		return lobby.NewLobby(ctx, code, lcfg)
	}
	persisted := func(ctx context.Context, code string) (bool, error) {
		if !httpapi.ValidCode(code) {
			return false, nil
		}
		return store.NewGameStore(blob, store.LobbyKey(code)).Exists(ctx)
	}
	h := hub.NewHub(ctx, factory, log, hub.WithPersisted(persisted))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(h, cat, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("store", string(cfg.Store)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.Inbox() <- hub.ShutdownHub{}
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// notifierFunc builds the change feed for one lobby key.
type notifierFunc func(key string) engine.ChangeNotifier

func openStore(ctx context.Context, cfg config.ServerConfig, pool *pgxpool.Pool, log *zap.Logger) (store.Blob, notifierFunc, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemoryBlob(), nil, nil

	case config.StorePostgres:
		if pool == nil {
			return nil, nil, errors.New("postgres store needs DATABASE_URL")
		}
		blob, err := store.NewPostgresBlob(ctx, pool, log)
		if err != nil {
			return nil, nil, err
		}
		return blob, func(key string) engine.ChangeNotifier { return blob.Notifier(key) }, nil

	case config.StoreS3:
		blob, err := store.NewS3Blob(ctx, store.S3Config(cfg.S3))
		if err != nil {
			return nil, nil, err
		}
		return blob, nil, nil

	default:
		blob, err := store.NewFileBlob(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return blob, nil, nil
	}
}

func openCatalog(ctx context.Context, cfg config.ServerConfig, pool *pgxpool.Pool) (*catalog.Catalog, error) {
	seed, err := catalog.Seed()
	if cfg.CatalogPath != "" {
		seed, err = catalog.LoadFile(cfg.CatalogPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}

	if pool == nil {
		return catalog.New(catalog.NewMemorySource(seed)), nil
	}
	db, err := catalog.OpenGorm(pool)
	if err != nil {
		return nil, err
	}
	src, err := catalog.NewGormSource(ctx, db, seed)
	if err != nil {
		return nil, err
	}
	return catalog.New(src), nil
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

// Command seed loads a starter menu into the configured store, records worker
// availability in Redis and prints development access tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/auth"
	"github.com/platterhub/service-booking/internal/config"
	"github.com/platterhub/service-booking/internal/database"
	"github.com/platterhub/service-booking/internal/domain/identity"
	"github.com/platterhub/service-booking/internal/logger"
	"github.com/platterhub/service-booking/internal/repository"
	"github.com/platterhub/service-booking/migrations"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Fixed IDs so repeated runs upsert the same rows.
var starterMenu = []repository.MenuItemModel{
	{ID: uuid.MustParse("7d3c1f0e-2a51-4f7e-9a61-0c5b7e1d2001"), Name: "Grilled Chicken Platter", Category: "mains", UnitPriceCents: 1500, IsAvailable: true},
	{ID: uuid.MustParse("7d3c1f0e-2a51-4f7e-9a61-0c5b7e1d2002"), Name: "Vegetable Lasagna Tray", Category: "mains", UnitPriceCents: 1200, IsAvailable: true},
	{ID: uuid.MustParse("7d3c1f0e-2a51-4f7e-9a61-0c5b7e1d2003"), Name: "Caesar Salad Bowl", Category: "sides", UnitPriceCents: 500, IsAvailable: true},
	{ID: uuid.MustParse("7d3c1f0e-2a51-4f7e-9a61-0c5b7e1d2004"), Name: "Mini Dessert Assortment", Category: "desserts", UnitPriceCents: 800, IsAvailable: true},
	{ID: uuid.MustParse("7d3c1f0e-2a51-4f7e-9a61-0c5b7e1d2005"), Name: "Seasonal Oyster Bar", Category: "mains", UnitPriceCents: 4200, IsAvailable: false},
}

type upserter interface {
	Upsert(ctx context.Context, items ...repository.MenuItemModel) error
}

func main() {
	workers := pflag.StringSlice("worker", nil, "worker availability as <uuid>=<available|busy>, repeatable")
	tokens := pflag.StringSlice("token", nil, "print an access token for <role>:<uuid>, repeatable")
	skipMenu := pflag.Bool("skip-menu", false, "do not upsert the starter menu")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.NewNamed(cfg.AppEnv, "seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if !*skipMenu {
		if err := seedMenu(ctx, cfg, log); err != nil {
			log.Fatal("failed to seed menu", zap.Error(err))
		}
	}

	if len(*workers) > 0 {
		if err := seedAvailability(ctx, cfg, *workers, log); err != nil {
			log.Fatal("failed to seed worker availability", zap.Error(err))
		}
	}

	if len(*tokens) > 0 {
		jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL)
		for _, spec := range *tokens {
			p, err := parsePrincipal(spec)
			if err != nil {
				log.Fatal("invalid --token value", zap.String("value", spec), zap.Error(err))
			}
			token, err := jwtManager.GenerateAccessToken(p)
			if err != nil {
				log.Fatal("failed to sign token", zap.Error(err))
			}
			fmt.Printf("%s %s %s\n", p.Role, p.ID, token)
		}
	}
}

func seedMenu(ctx context.Context, cfg *config.ServiceConfig, log *zap.Logger) error {
	var target upserter
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.MongoConfig, log)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		target = repository.NewMongoCatalog(db)
	default:
		db, err := database.Connect(cfg.DBConfig, log)
		if err != nil {
			return err
		}
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), migrations.FS, log); err != nil {
			return err
		}
		target = repository.NewGormCatalog(db)
	}

	if err := target.Upsert(ctx, starterMenu...); err != nil {
		return err
	}
	log.Info("menu seeded", zap.Int("items", len(starterMenu)))
	return nil
}

func seedAvailability(ctx context.Context, cfg *config.ServiceConfig, specs []string, log *zap.Logger) error {
	rdb, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	store := repository.NewRedisAvailabilityStore(rdb)
	for _, spec := range specs {
		id, status, ok := strings.Cut(spec, "=")
		if !ok {
			return fmt.Errorf("expected <uuid>=<status>, got %q", spec)
		}
		workerID, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("invalid worker id %q: %w", id, err)
		}
		availability, err := identity.ParseAvailability(status)
		if err != nil {
			return err
		}
		if err := store.SetAvailability(ctx, workerID, availability); err != nil {
			return err
		}
		log.Info("worker availability set",
			zap.String("worker_id", workerID.String()),
			zap.String("status", string(availability)),
		)
	}
	return nil
}

func parsePrincipal(spec string) (identity.Principal, error) {
	role, id, ok := strings.Cut(spec, ":")
	if !ok {
		return identity.Principal{}, fmt.Errorf("expected <role>:<uuid>")
	}
	r := identity.Role(role)
	if !r.IsValid() {
		return identity.Principal{}, fmt.Errorf("unknown role %q", role)
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return identity.Principal{}, err
	}
	return identity.Principal{ID: uid, Role: r}, nil
}

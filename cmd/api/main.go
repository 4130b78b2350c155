package main

import (
	"context"
	"log"

	"github.com/expert-buddy/expertbuddy-backend/config"
	"github.com/expert-buddy/expertbuddy-backend/internal/bootstrap"
	"github.com/expert-buddy/expertbuddy-backend/internal/identity"
	"github.com/expert-buddy/expertbuddy-backend/internal/reconcile"
	"github.com/expert-buddy/expertbuddy-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()
	dsn := cfg.Database.DSN()

	pool, err := bootstrap.OpenPool(ctx, bootstrap.DBOptions{DSN: dsn})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	profileDB, err := bootstrap.OpenSQL(ctx, dsn)
	if err != nil {
		log.Fatalf("postgres (profiles): %v", err)
	}
	defer profileDB.Close()

	rdb, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	var provider identity.Provider
	if cfg.Firebase.CredentialsPath != "" {
		fb, err := identity.NewFirebaseProvider(ctx, &cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
		provider = fb
	} else {
		// Development only: accounts live in memory and vanish on
		// restart.
		log.Println("FIREBASE_CREDENTIALS_PATH not set, using in-memory identity provider")
		provider = identity.NewLocalProvider()
	}

	var avatars storage.BinaryStore
	if cfg.Storage.Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, &cfg.Storage)
		if err != nil {
			log.Fatalf("s3: %v", err)
		}
		avatars = s3Store
	} else {
		log.Println("AVATAR_BUCKET not set, avatar uploads disabled")
	}

	router, registry := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "expertbuddy-api",
		Version:     cfg.App.Version,
		Provider:    provider,
		ProfileDB:   profileDB,
		Pool:        pool,
		Redis:       rdb,
		Avatars:     avatars,
	})
	defer registry.Dispose()

	scheduler := reconcile.NewScheduler(registry, cfg.App.ReconcileSpec)
	scheduler.Start()
	defer scheduler.Stop()

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Lyndoncatan/Neu-LabLogs/internal/config"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/db"
	internalhttp "github.com/Lyndoncatan/Neu-LabLogs/internal/http"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/identity"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/jobs"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/logger"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/repository"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db connection failed")
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.WithError(err).Fatal("schema setup failed")
	}

	store := repository.NewStore(pool)

	var roleCache identity.RoleCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.WithError(err).Warn("redis unavailable, preferred roles will not persist")
		} else {
			roleCache = identity.NewRedisRoleCache(client, cfg.PreferredRoleTTL)
		}
	}

	resolver := identity.NewResolver(cfg.AllowedEmailDomain, cfg.DemoAdminEmail, roleCache, store)
	server := internalhttp.NewServer(cfg, store, resolver)

	if err := jobs.StartAutoCloseJob(ctx, cfg, store, log); err != nil {
		log.WithError(err).Fatal("auto-close job setup failed")
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("lablogs listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}

package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/terraincognita07/tukicale/internal/api"
	"github.com/terraincognita07/tukicale/internal/services"
)

const (
	scheduledSyncTimeout = 5 * time.Minute
	shutdownTimeout      = 10 * time.Second
)

// RunServe starts the HTTP API and, when configured, the periodic resync. It
// returns once ctx is cancelled and the server has drained.
func RunServe(ctx context.Context, configPath string) error {
	rt, err := openRuntime(ctx, configPath, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	app, err := newServer(rt)
	if err != nil {
		return err
	}

	var scheduler *services.SyncScheduler
	if rt.cfg.Sync.Schedule != "" && rt.sync.Enabled() {
		scheduler, err = services.NewSyncScheduler(rt.cfg.Sync.Schedule, rt.cfg.Location(), rt.sync, scheduledSyncTimeout)
		if err != nil {
			return fmt.Errorf("scheduler init failed: %w", err)
		}
		scheduler.Start()
		log.Printf("scheduled sync enabled (%s), next run %s", rt.cfg.Sync.Schedule, scheduler.Next().Format(time.RFC3339))
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if scheduler != nil {
			scheduler.Stop(shutdownCtx)
		}
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("server shutdown failed: %v", err)
		}
	}()

	log.Printf("TukiCale listening on %s (db: %s, tz: %s, backend: %s)", rt.cfg.Listen, rt.cfg.DBPath, rt.cfg.Location().String(), rt.cfg.Calendar.Backend)
	if err := app.Listen(rt.cfg.Listen); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

func newServer(rt *runtime) (*fiber.App, error) {
	dependencies := api.Dependencies{
		Records:      rt.records,
		Settings:     rt.settings,
		Stats:        rt.stats,
		Exports:      rt.exports,
		Sync:         rt.sync,
		I18n:         rt.i18n,
		CalendarName: rt.cfg.Calendar.Name,
		SecretKey:    rt.cfg.SecretKey,
		Location:     rt.cfg.Location(),
		Now:          rt.now,
	}
	if rt.feed != nil {
		dependencies.Feed = rt.feed
	}

	handler, err := api.NewHandler(dependencies)
	if err != nil {
		return nil, fmt.Errorf("handler init failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "TukiCale",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	api.RegisterRoutes(app, handler)
	return app, nil
}

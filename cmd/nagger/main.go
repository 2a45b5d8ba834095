package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"nagger/internal/bot"
	"nagger/internal/config"
	"nagger/internal/logger"
	"nagger/internal/repository"
	"nagger/internal/server"
	"nagger/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer sqlDB.Close()

	userRepo := repository.NewUserRepository(db, cfg.DefaultTimezone)
	taskRepo := repository.NewTaskRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("create bot api: %w", err)
	}

	zones := service.NewZoneResolver(cfg.Location())
	taskSvc := service.NewTaskService(taskRepo, reminderRepo)
	reminderSvc := service.NewReminderService(reminderRepo, bot.NewDispatcher(api), zones, log, cfg.SweepWorkers)
	telegramBot := bot.New(api, userRepo, taskSvc, reminderSvc, zones, log)

	scheduler := service.NewSchedulerService(cfg.Location(), log)
	if _, err := scheduler.ScheduleInterval(cfg.CheckInterval, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, cfg.SweepTimeout)
		defer cancel()
		if _, err := reminderSvc.Sweep(sweepCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("sweep", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	scheduler.Start()
	// Waits for an in-flight sweep.
	defer scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return telegramBot.Start(gctx)
	})
	if !cfg.HealthDisabled {
		health := server.New(cfg.Port, sqlDB, log)
		g.Go(func() error {
			return health.Run(gctx)
		})
	}

	log.Info("nagger started", "check_interval", cfg.CheckInterval, "workers", cfg.SweepWorkers, "default_timezone", cfg.DefaultTimezone)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

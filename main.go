package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ieltsprep/internal/api"
	"github.com/example/ieltsprep/internal/bot"
	"github.com/example/ieltsprep/internal/config"
	"github.com/example/ieltsprep/internal/database"
	"github.com/example/ieltsprep/internal/excel"
	"github.com/example/ieltsprep/internal/progress"
	"github.com/example/ieltsprep/internal/scheduler"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	importFile := flag.String("import", "", "import drills from an .xlsx or .csv file and exit")
	importUser := flag.Int64("user", 0, "owner of the imported drills")
	sheet := flag.String("sheet", "", "sheet to import, defaults to the first one")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to the database
	if err := database.Connect(cfg.DBType, cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	service := progress.NewService(progress.Options{
		Users:              database.NewUserRepository(database.DB),
		Drills:             database.NewDrillRepository(database.DB),
		Streaks:            database.NewStreakRepository(database.DB),
		Attempts:           database.NewAttemptRepository(database.DB),
		DefaultTimezone:    cfg.DefaultTimezone,
		DefaultDailyTarget: cfg.DefaultDailyTarget,
	})

	// Context cancelled on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *importFile != "" {
		runImport(ctx, service, *importFile, *importUser, *sheet)
		return
	}

	// Signal channel
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	server := api.NewServer(&api.Options{
		Address: cfg.HTTPAddr,
		Debug:   cfg.Debug,
		Service: service,
	})
	go func() {
		log.Printf("HTTP API listening on %s", cfg.HTTPAddr)
		if err := server.Start(); err != nil {
			log.Printf("HTTP server error: %v", err)
			cancel()
		}
	}()

	var b *bot.Bot
	if cfg.TelegramToken != "" {
		b, err = bot.New(cfg.TelegramToken, service, cfg.AdminUserIDs)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		if err := b.Connect(); err != nil {
			log.Fatalf("Failed to connect bot: %v", err)
		}
	} else {
		log.Println("TELEGRAM_BOT_TOKEN is not set, Telegram bot disabled")
	}

	var sched *scheduler.Scheduler
	if cfg.EnableScheduler && b != nil {
		sched = scheduler.New(service, b)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		b.SetReminderTrigger(sched)
		log.Println("Reminder scheduler started successfully")
	}

	if b != nil {
		go func() {
			if err := b.Start(ctx); err != nil && err != context.Canceled {
				log.Printf("Bot error: %v", err)
				cancel()
			}
		}()
	}

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}
	cancel()

	// Give components time to shut down gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if sched != nil {
		sched.Stop()
	}
	if b != nil {
		if err := b.Stop(shutdownCtx); err != nil {
			log.Printf("Error stopping bot: %v", err)
		}
	}
	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Stopped successfully")
}

func runImport(ctx context.Context, service *progress.Service, path string, userID int64, sheet string) {
	if userID <= 0 {
		log.Fatal("-user is required with -import")
	}
	if _, err := service.RegisterUser(ctx, userID, "", ""); err != nil {
		log.Fatalf("Failed to register user %d: %v", userID, err)
	}

	importCfg := excel.DefaultImportConfig()
	importCfg.FilePath = path
	importCfg.UserID = userID
	importCfg.SheetName = sheet

	result, err := excel.ImportDrills(ctx, importCfg, service)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	for _, e := range result.Errors {
		log.Println(e)
	}
	log.Printf("Imported %d of %d rows (%d skipped)", result.Created, result.TotalProcessed, result.Skipped)
}

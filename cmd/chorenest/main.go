package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/chorenest/chorenest/internal/database"
	"github.com/chorenest/chorenest/internal/logging"
	"github.com/chorenest/chorenest/internal/push"
	"github.com/chorenest/chorenest/internal/schoolcal"
	"github.com/chorenest/chorenest/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("CHORENEST_LOG_LEVEL"), os.Getenv("CHORENEST_LOG_FORMAT"))

	port := os.Getenv("CHORENEST_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("CHORENEST_DB_PATH")
	if dbPath == "" {
		dbPath = "chorenest.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	schoolSvc := schoolcal.NewService(schoolcal.Config{
		FeedURL: os.Getenv("CHORENEST_SCHOOL_FEED_URL"),
	})

	reminderHour := 7
	if raw := os.Getenv("CHORENEST_REMINDER_HOUR"); raw != "" {
		if h, err := strconv.Atoi(raw); err == nil && h >= 0 && h <= 23 {
			reminderHour = h
		}
	}

	srv := server.New(db, server.Config{
		SchoolCal: schoolSvc,
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("CHORENEST_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("CHORENEST_VAPID_PRIVATE_KEY"),
		},
		ReminderHour: reminderHour,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	}

	// Periodic rate-limiter cleanup so idle keys don't accumulate.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("ChoreNest running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/campus-booking/internal/application"
	"github.com/example/campus-booking/internal/catalog"
	"github.com/example/campus-booking/internal/config"
	httptransport "github.com/example/campus-booking/internal/http"
	"github.com/example/campus-booking/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	studentRepo := sqlite.NewStudentRepository(storage.Pool())
	lecturerRepo := sqlite.NewLecturerRepository(storage.Pool())
	roomRepo := sqlite.NewRoomRepository(storage.Pool(), now)
	lectureRepo := sqlite.NewLectureRepository(storage.Pool())

	moduleCatalog := catalog.New(cfg.ModuleCodes)

	registryService := application.NewRegistryService(studentRepo, lecturerRepo, moduleCatalog, idGenerator, now, logger)
	bookingService := application.NewBookingService(roomRepo, lecturerRepo, now, cfg.CASMaxRetries, logger)
	rosterService := application.NewRosterService(roomRepo, studentRepo, cfg.CASMaxRetries, logger)
	lectureService := application.NewLectureService(lectureRepo, lecturerRepo, idGenerator, now, logger)

	studentHandler := httptransport.NewStudentHandler(registryService, logger)
	lecturerHandler := httptransport.NewLecturerHandler(registryService, logger)
	lectureHandler := httptransport.NewLectureHandler(bookingService, rosterService, lectureService, logger)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Students:   studentHandler,
		Lecturers:  lecturerHandler,
		Lectures:   lectureHandler,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("campus booking API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"stereovision/internal/config"
	"stereovision/internal/coordinator"
	"stereovision/internal/logger"
	"stereovision/internal/models"
	"stereovision/internal/repository/sqlite"
	"stereovision/internal/routes"
	"stereovision/internal/services"
	"stereovision/internal/services/display"
	"stereovision/internal/services/websocket"
	"stereovision/internal/tuning"
	"stereovision/internal/vision"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config      *config.Config
	logger      *logger.Logger
	db          *sqlite.DB
	hubService  *websocket.HubService
	manager     *services.Manager
	coordinator *coordinator.Coordinator
	server      *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.NewLogger(cfg)

	settings, err := cfg.InitialSettings()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	store := tuning.NewStore(settings)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHubService(log)
	screen := display.NewService(hub, log)
	mng := services.NewManager(screen, cfg.DisplayEveryNth, log)

	factory := func(role models.Role, deviceID int) coordinator.FramePipeline {
		return vision.NewPipeline(role, deviceID, store, mng, log, vision.WithBlur(cfg.BlurEnabled))
	}
	coord := coordinator.New(store, factory, screen, log)
	mng.Attach(coord)

	router := routes.SetupRoutes(routes.Deps{
		Config:      cfg,
		Logger:      log,
		Coordinator: coord,
		Presets:     sqlite.NewPresetRepository(db),
		Hub:         hub,
	})

	return &App{
		config:      cfg,
		logger:      log,
		db:          db,
		hubService:  hub,
		manager:     mng,
		coordinator: coord,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: router,
		},
	}, nil
}

// Run serves HTTP until ctx is cancelled, then stops both cameras and the
// session before returning.
func (a *App) Run(ctx context.Context) error {
	go a.hubService.Run()
	a.autoStart()

	fmt.Printf("🚀 Stereo Distance Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🗄️  Presets: %s\n", a.config.DatabasePath)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}

	a.shutdown()
	return err
}

func (a *App) autoStart() {
	for role, device := range map[models.Role]int{
		models.RoleFirst:  a.config.FirstDevice,
		models.RoleSecond: a.config.SecondDevice,
	} {
		if device < 0 {
			continue
		}
		if err := a.coordinator.StartSlot(role, device); err != nil {
			a.logger.Error("Auto-start camera %s on device %d: %v", role, device, err)
		}
	}
}

func (a *App) shutdown() {
	a.logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Warning("HTTP shutdown: %v", err)
	}

	a.coordinator.Shutdown()
	a.hubService.Stop()
	if err := a.db.Close(); err != nil {
		a.logger.Warning("Closing database: %v", err)
	}
}

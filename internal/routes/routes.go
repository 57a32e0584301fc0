package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"stereovision/internal/config"
	"stereovision/internal/coordinator"
	"stereovision/internal/handlers"
	"stereovision/internal/logger"
	"stereovision/internal/middleware"
	"stereovision/internal/repository"
	"stereovision/internal/services/websocket"
)

// Deps are the services the HTTP surface talks to.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Coordinator *coordinator.Coordinator
	Presets     repository.PresetRepository
	Hub         *websocket.HubService
	StaticDir   string
}

// dynamicHTMLHandler serves /path as <static>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()
	staticDir := d.StaticDir
	if staticDir == "" {
		staticDir = "static"
	}
	c, log := d.Coordinator, d.Logger

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	// Camera endpoints
	mux.HandleFunc("/api/cameras", handlers.CamerasHandler(c))
	mux.HandleFunc("/api/cameras/start", handlers.StartCameraHandler(c, log))
	mux.HandleFunc("/api/cameras/stop", handlers.StopCameraHandler(c))
	mux.HandleFunc("/api/cameras/toggle", handlers.ToggleCameraHandler(c, log))
	mux.HandleFunc("/api/distance", handlers.DistanceHandler(c))

	// Settings endpoints
	mux.HandleFunc("/api/settings", handlers.SettingsHandler(c, log))
	mux.HandleFunc("/api/settings/color", handlers.ColorSettingsHandler(c))
	mux.HandleFunc("/api/settings/calibration", handlers.CalibrationSettingsHandler(c))
	mux.HandleFunc("/api/settings/timing", handlers.TimingSettingsHandler(c))

	// Preset endpoints
	mux.HandleFunc("/api/presets", handlers.PresetsHandler(d.Presets, c, log))
	mux.HandleFunc("/api/presets/apply", handlers.ApplyPresetHandler(d.Presets, c, log))

	// Live view
	mux.HandleFunc("/api/view", handlers.ViewWebsocketHandler(d.Hub, log))

	// Log endpoints
	for _, level := range []string{"info", "warning", "error"} {
		file := level + ".log"
		mux.HandleFunc("/logs/"+level, handlers.LogFileHandler(log, file))
		mux.HandleFunc("/logs/"+level+"/clear", handlers.ClearLogHandler(log, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handlers.LoginHandler(d.Config, log))
	mux.HandleFunc("/auth/logout", handlers.LogoutHandler)

	// Automatic HTML handler mapping for example: /settings -> /static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler(staticDir))

	// Apply middleware
	return middleware.AuthMiddleware(mux)
}

package handlers

import (
	"net/http"

	"stereovision/internal/coordinator"
	"stereovision/internal/logger"
	"stereovision/internal/models"
)

// SettingsHandler handles GET and PUT /api/settings. PUT replaces the whole
// settings value.
func SettingsHandler(c *coordinator.Coordinator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodGet, http.MethodPut) {
			return
		}
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, c.Settings())
			return
		}

		var next models.Settings
		if err := decodeJSON(r, &next); err != nil {
			writeError(w, err)
			return
		}
		applied, err := c.ApplySettings(next)
		if err != nil {
			writeError(w, err)
			return
		}
		logger.Info("Settings replaced")
		writeJSON(w, http.StatusOK, applied)
	}
}

// ColorSettingsHandler handles PUT /api/settings/color.
func ColorSettingsHandler(c *coordinator.Coordinator) http.HandlerFunc {
	return updateHandler(c.UpdateColorRange)
}

// CalibrationSettingsHandler handles PUT /api/settings/calibration.
func CalibrationSettingsHandler(c *coordinator.Coordinator) http.HandlerFunc {
	return updateHandler(c.UpdateCalibration)
}

// TimingSettingsHandler handles PUT /api/settings/timing.
func TimingSettingsHandler(c *coordinator.Coordinator) http.HandlerFunc {
	return updateHandler(c.UpdateTiming)
}

func updateHandler[T any](update func(T) (models.Settings, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPut) {
			return
		}
		var v T
		if err := decodeJSON(r, &v); err != nil {
			writeError(w, err)
			return
		}
		next, err := update(v)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, next)
	}
}

package handlers

import (
	"net/http"
	"strings"
	"time"

	"stereovision/internal/coordinator"
	"stereovision/internal/logger"
	"stereovision/internal/models"
	"stereovision/internal/repository"
)

// PresetsHandler handles /api/presets: GET lists, POST ?name= saves the
// current settings, DELETE ?id= removes one.
func PresetsHandler(repo repository.PresetRepository, c *coordinator.Coordinator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodGet, http.MethodPost, http.MethodDelete) {
			return
		}

		switch r.Method {
		case http.MethodGet:
			presets, err := repo.GetAll()
			if err != nil {
				logger.Error("Failed to list presets: %v", err)
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, presets)

		case http.MethodPost:
			name := strings.TrimSpace(r.URL.Query().Get("name"))
			if name == "" {
				writeError(w, badRequest("missing name parameter"))
				return
			}
			preset := &models.Preset{Name: name, Settings: c.Settings(), CreatedAt: time.Now().UTC()}
			id, err := repo.Insert(preset)
			if err != nil {
				writeError(w, err)
				return
			}
			preset.ID = id
			logger.Info("Preset %q saved (id %d)", name, id)
			writeJSON(w, http.StatusCreated, preset)

		case http.MethodDelete:
			id, err := intParam(r, "id")
			if err != nil {
				writeError(w, err)
				return
			}
			if err := repo.Delete(id); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// ApplyPresetHandler handles POST /api/presets/apply?id= by publishing the
// stored settings like any operator update.
func ApplyPresetHandler(repo repository.PresetRepository, c *coordinator.Coordinator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		id, err := intParam(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		preset, err := repo.GetByID(id)
		if err != nil {
			writeError(w, err)
			return
		}
		applied, err := c.ApplySettings(preset.Settings)
		if err != nil {
			writeError(w, err)
			return
		}
		logger.Info("Preset %q applied", preset.Name)
		writeJSON(w, http.StatusOK, applied)
	}
}

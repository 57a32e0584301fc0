package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"stereovision/internal/coordinator"
	"stereovision/internal/models"
	"stereovision/internal/repository/sqlite"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, coordinator.ErrInvalidSettings),
		errors.Is(err, coordinator.ErrInvalidDevice),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, coordinator.ErrDeviceInUse),
		errors.Is(err, coordinator.ErrSlotActive),
		errors.Is(err, coordinator.ErrSlotInactive),
		errors.Is(err, sqlite.ErrPresetExists):
		status = http.StatusConflict
	case errors.Is(err, sqlite.ErrPresetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errCameraUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

var (
	errBadRequest        = errors.New("bad request")
	errCameraUnavailable = errors.New("camera unavailable")
)

func badRequest(format string, v ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, v...))
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func roleParam(r *http.Request) (models.Role, error) {
	role, err := models.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		return 0, badRequest("%v", err)
	}
	return role, nil
}

func intParam(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, badRequest("missing %s parameter", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequest("invalid %s parameter %q", name, raw)
	}
	return v, nil
}

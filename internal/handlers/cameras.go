package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"stereovision/internal/coordinator"
	"stereovision/internal/logger"
)

// CamerasHandler returns the state of both camera slots and the session.
func CamerasHandler(c *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, http.StatusOK, c.Status())
	}
}

// StartCameraHandler handles POST /api/cameras/start?role=&device=.
func StartCameraHandler(c *coordinator.Coordinator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		role, err := roleParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		device, err := intParam(r, "device")
		if err != nil {
			writeError(w, err)
			return
		}

		if err := c.StartSlot(role, int(device)); err != nil {
			logger.Warning("Start camera %s on device %d: %v", role, device, err)
			writeError(w, startError(err))
			return
		}
		writeJSON(w, http.StatusOK, c.Status())
	}
}

// StopCameraHandler handles POST /api/cameras/stop?role=.
func StopCameraHandler(c *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		role, err := roleParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := c.StopSlot(role); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c.Status())
	}
}

// ToggleCameraHandler handles POST /api/cameras/toggle?role=&device=. The
// device is only needed when the slot is inactive.
func ToggleCameraHandler(c *coordinator.Coordinator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		role, err := roleParam(r)
		if err != nil {
			writeError(w, err)
			return
		}

		device := int64(-1)
		if !c.SlotActive(role) {
			if device, err = intParam(r, "device"); err != nil {
				writeError(w, err)
				return
			}
		}

		if _, err := c.ToggleSlot(role, int(device)); err != nil {
			logger.Warning("Toggle camera %s: %v", role, err)
			writeError(w, startError(err))
			return
		}
		writeJSON(w, http.StatusOK, c.Status())
	}
}

// startError tags device failures that are not coordinator rule violations.
func startError(err error) error {
	if errors.Is(err, coordinator.ErrDeviceInUse) ||
		errors.Is(err, coordinator.ErrInvalidDevice) ||
		errors.Is(err, coordinator.ErrSlotActive) ||
		errors.Is(err, coordinator.ErrSlotInactive) {
		return err
	}
	return fmt.Errorf("%w: %w", errCameraUnavailable, err)
}

// DistanceHandler returns the last measured distance.
func DistanceHandler(c *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodGet) {
			return
		}
		result, ok := c.LastDistance()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

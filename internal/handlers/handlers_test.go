package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stereovision/internal/config"
	"stereovision/internal/coordinator"
	"stereovision/internal/logger"
	"stereovision/internal/models"
	"stereovision/internal/repository/sqlite"
	wshub "stereovision/internal/services/websocket"
	"stereovision/internal/tuning"
)

type stubPipeline struct{ openErr error }

func (p *stubPipeline) Open() error       { return p.openErr }
func (p *stubPipeline) Start() error      { return nil }
func (p *stubPipeline) Close() error      { return nil }
func (p *stubPipeline) Reschedule() error { return nil }
func (p *stubPipeline) IsOpen() bool      { return p.openErr == nil }

type nopDisplay struct{}

func (nopDisplay) ShowDistance(models.DistanceResult) {}
func (nopDisplay) CaptureStarted(models.Role)         {}
func (nopDisplay) CaptureStopped(models.Role)         {}

const brokenDevice = 99

func newTestCoordinator(t *testing.T) *coordinator.Coordinator {
	t.Helper()
	factory := func(role models.Role, deviceID int) coordinator.FramePipeline {
		if deviceID == brokenDevice {
			return &stubPipeline{openErr: errors.New("device not opened")}
		}
		return &stubPipeline{}
	}
	c := coordinator.New(tuning.NewStore(models.DefaultSettings()), factory, nopDisplay{}, logger.Discard())
	t.Cleanup(c.Shutdown)
	return c
}

func newTestRepo(t *testing.T) *sqlite.PresetRepository {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "presets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlite.NewPresetRepository(db)
}

func do(t *testing.T, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestCameraHandlers(t *testing.T) {
	c := newTestCoordinator(t)
	log := logger.Discard()

	rec := do(t, StartCameraHandler(c, log), http.MethodPost, "/api/cameras/start?role=first&device=0", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var st coordinator.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.Slots[models.RoleFirst].Active)

	rec = do(t, StartCameraHandler(c, log), http.MethodPost, "/api/cameras/start?role=second&device=0", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "device aliasing")

	rec = do(t, StartCameraHandler(c, log), http.MethodPost, "/api/cameras/start?role=second&device=99", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, StartCameraHandler(c, log), http.MethodPost, "/api/cameras/start?role=third&device=1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, StartCameraHandler(c, log), http.MethodPost, "/api/cameras/start?role=second", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, StartCameraHandler(c, log), http.MethodPost, "/api/cameras/start?role=second&device=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "negative device means any camera to OpenCV")
	assert.False(t, c.SlotActive(models.RoleSecond))

	rec = do(t, StopCameraHandler(c), http.MethodPost, "/api/cameras/stop?role=second", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "slot inactive")

	rec = do(t, StopCameraHandler(c), http.MethodPost, "/api/cameras/stop?role=first", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, c.SlotActive(models.RoleFirst))

	rec = do(t, CamerasHandler(c), http.MethodPost, "/api/cameras", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestToggleCameraHandler(t *testing.T) {
	c := newTestCoordinator(t)
	log := logger.Discard()

	rec := do(t, ToggleCameraHandler(c, log), http.MethodPost, "/api/cameras/toggle?role=left", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "device required to start")

	rec = do(t, ToggleCameraHandler(c, log), http.MethodPost, "/api/cameras/toggle?role=left&device=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, c.SlotActive(models.RoleFirst))

	rec = do(t, ToggleCameraHandler(c, log), http.MethodPost, "/api/cameras/toggle?role=left", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, c.SlotActive(models.RoleFirst))
}

func TestSettingsHandlers(t *testing.T) {
	c := newTestCoordinator(t)
	log := logger.Discard()

	rec := do(t, SettingsHandler(c, log), http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.DefaultSettings(), got)

	rec = do(t, ColorSettingsHandler(c), http.MethodPut, "/api/settings/color",
		`{"hue_start":0,"hue_stop":10,"saturation_start":100,"saturation_stop":255,"value_start":50,"value_stop":255}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 10.0, c.Settings().Color.HueStop)

	rec = do(t, ColorSettingsHandler(c), http.MethodPut, "/api/settings/color", `{"hue_start":50,"hue_stop":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, TimingSettingsHandler(c), http.MethodPut, "/api/settings/timing", `{"period_ms":50,"delay_ms":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(50), c.Settings().Timing.PeriodMs)

	rec = do(t, TimingSettingsHandler(c), http.MethodPut, "/api/settings/timing", `{"period":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")

	calib := models.DefaultCalibration()
	calib.Method = models.MethodPixelRatio
	body, err := json.Marshal(calib)
	require.NoError(t, err)
	rec = do(t, CalibrationSettingsHandler(c), http.MethodPut, "/api/settings/calibration", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.MethodPixelRatio, c.Settings().Calibration.Method)

	rec = do(t, CalibrationSettingsHandler(c), http.MethodGet, "/api/settings/calibration", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDistanceHandler_NoMeasurement(t *testing.T) {
	c := newTestCoordinator(t)

	rec := do(t, DistanceHandler(c), http.MethodGet, "/api/distance", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPresetHandlers(t *testing.T) {
	c := newTestCoordinator(t)
	repo := newTestRepo(t)
	log := logger.Discard()

	_, err := c.UpdateColorRange(models.ColorRange{HueStop: 15, SaturationStop: 255, ValueStop: 255})
	require.NoError(t, err)

	rec := do(t, PresetsHandler(repo, c, log), http.MethodPost, "/api/presets?name=orange", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var saved models.Preset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.NotZero(t, saved.ID)

	rec = do(t, PresetsHandler(repo, c, log), http.MethodPost, "/api/presets?name=orange", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, PresetsHandler(repo, c, log), http.MethodPost, "/api/presets", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, PresetsHandler(repo, c, log), http.MethodGet, "/api/presets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Preset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "orange", list[0].Name)

	// change settings, then load the preset back
	_, err = c.ApplySettings(models.DefaultSettings())
	require.NoError(t, err)
	id := strconv.FormatInt(saved.ID, 10)
	rec = do(t, ApplyPresetHandler(repo, c, log), http.MethodPost, "/api/presets/apply?id="+id, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 15.0, c.Settings().Color.HueStop)

	rec = do(t, PresetsHandler(repo, c, log), http.MethodDelete, "/api/presets?id="+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, ApplyPresetHandler(repo, c, log), http.MethodPost, "/api/presets/apply?id="+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	cfg := &config.Config{Password: "secret"}
	h := LoginHandler(cfg, logger.Discard())

	form := url.Values{"password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	form.Set("password", "secret")
	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, "true", rec.Result().Cookies()[0].Value)
}

func TestLogHandlers(t *testing.T) {
	dir := t.TempDir()
	log := logger.NewLogger(&config.Config{LogDirectory: dir})
	log.Info("hello %s", "log")

	rec := do(t, LogFileHandler(log, "info.log"), http.MethodGet, "/logs/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello log")

	rec = do(t, ClearLogHandler(log, "info.log"), http.MethodPost, "/logs/info/clear", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, LogFileHandler(log, "info.log"), http.MethodGet, "/logs/info", "")
	assert.NotContains(t, rec.Body.String(), "hello log")

	rec = do(t, LogFileHandler(logger.Discard(), "info.log"), http.MethodGet, "/logs/info", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViewWebsocket_PassiveViewerStaysConnected(t *testing.T) {
	hub := wshub.NewHubService(logger.Discard())
	go hub.Run()
	t.Cleanup(hub.Stop)

	const readTimeout = time.Second
	srv := httptest.NewServer(viewWebsocketHandler(hub, logger.Discard(), readTimeout))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/view", nil)
	require.NoError(t, err)
	defer conn.Close()

	// like the browser page: read only, never send; pings are answered by
	// the default ping handler while reading
	received := make(chan []byte, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case received <- msg:
			default:
			}
		}
	}()

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * readTimeout)
	assert.Equal(t, 1, hub.GetClientCount(), "viewer must outlive the read deadline")

	require.True(t, hub.Broadcast([]byte(`{"type":"capture"}`)))
	select {
	case msg := <-received:
		assert.JSONEq(t, `{"type":"capture"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("viewer received nothing after the read deadline passed")
	}
}

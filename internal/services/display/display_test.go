package display

import (
	"encoding/json"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"stereovision/internal/logger"
	"stereovision/internal/models"
)

type fakeHub struct {
	mu       sync.Mutex
	clients  int
	capacity int
	messages [][]byte
}

func (h *fakeHub) Broadcast(message []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.capacity > 0 && len(h.messages) >= h.capacity {
		return false
	}
	h.messages = append(h.messages, message)
	return true
}

func (h *fakeHub) GetClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients
}

func testMat(t *testing.T) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 48, 64, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&m, image.Rect(10, 10, 30, 30), color.RGBA{R: 255, A: 0}, -1)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestShowFrame_EncodesAllImages(t *testing.T) {
	hub := &fakeHub{clients: 1}
	s := NewService(hub, logger.Discard())
	m := testMat(t)

	s.ShowFrame(models.RoleSecond, m, m, m)

	require.Len(t, hub.messages, 1)
	var msg FrameMessage
	require.NoError(t, json.Unmarshal(hub.messages[0], &msg))
	assert.Equal(t, TypeFrame, msg.Type)
	assert.Equal(t, models.RoleSecond, msg.Camera)
	assert.NotEmpty(t, msg.Image)
	assert.NotEmpty(t, msg.Mask)
	assert.NotEmpty(t, msg.Morph)
}

func TestShowFrame_NoViewers(t *testing.T) {
	hub := &fakeHub{}
	s := NewService(hub, logger.Discard())

	s.ShowFrame(models.RoleFirst, testMat(t), testMat(t), testMat(t))

	assert.Empty(t, hub.messages)
}

func TestShowDistance(t *testing.T) {
	hub := &fakeHub{}
	s := NewService(hub, logger.Discard())
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s.ShowDistance(models.DistanceResult{DistanceLower: 100, DistanceUpper: 120, ProximityEvent: true, MeasuredAt: at})

	require.Len(t, hub.messages, 1)
	assert.JSONEq(t,
		`{"type":"distance","distance_lower":100,"distance_upper":120,"proximity_event":true,"measured_at":"2024-05-01T12:00:00Z"}`,
		string(hub.messages[0]))
}

func TestCaptureMessagesAndDrops(t *testing.T) {
	hub := &fakeHub{capacity: 1}
	s := NewService(hub, logger.Discard())

	s.CaptureStarted(models.RoleFirst)
	s.CaptureStopped(models.RoleFirst)

	require.Len(t, hub.messages, 1)
	assert.JSONEq(t, `{"type":"capture","camera":"first","active":true}`, string(hub.messages[0]))
	assert.Equal(t, int64(1), s.Dropped())
}

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(testMat(t))
	require.NoError(t, err)
	require.Greater(t, len(data), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = EncodeJPEG(empty)
	assert.Error(t, err)
}

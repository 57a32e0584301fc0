package services

import (
	"sync"

	"gocv.io/x/gocv"

	"stereovision/internal/logger"
	"stereovision/internal/models"
	"stereovision/internal/vision"
)

// PointsReceiver consumes the object points of every processed frame.
type PointsReceiver interface {
	OnFrameResult(role models.Role, points []models.Point)
	OnCaptureStarted(role models.Role)
	OnCaptureStopped(role models.Role)
}

// FrameDisplay shows the images of a processed frame.
type FrameDisplay interface {
	ShowFrame(role models.Role, frame, mask, morph gocv.Mat)
}

// Manager is the vision.Sink of both pipelines. Points always go to the
// receiver; images go to the display every Nth frame per camera.
type Manager struct {
	display         FrameDisplay
	logger          *logger.Logger
	processEveryNth int

	mu            sync.RWMutex
	receiver      PointsReceiver
	frameCounters [2]int // Licznik klatek dla każdej kamery
}

var _ vision.Sink = (*Manager)(nil)

func NewManager(display FrameDisplay, processEveryNth int, logger *logger.Logger) *Manager {
	if processEveryNth < 1 {
		processEveryNth = 1
	}
	logger.Info("🎬 Manager started - displaying every %d frame(s)", processEveryNth)
	return &Manager{
		display:         display,
		processEveryNth: processEveryNth,
		logger:          logger,
	}
}

// Attach sets the receiver of frame points. The coordinator is built after
// the manager because its pipelines report here.
func (m *Manager) Attach(receiver PointsReceiver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receiver = receiver
}

func (m *Manager) currentReceiver() PointsReceiver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.receiver
}

func (m *Manager) OnFrameResult(role models.Role, result *vision.FrameResult) {
	if r := m.currentReceiver(); r != nil {
		r.OnFrameResult(role, result.Points)
	}

	if m.display == nil || !m.shouldDisplay(role) {
		return
	}
	m.display.ShowFrame(role, result.Frame, result.Mask, result.Morph)
}

func (m *Manager) shouldDisplay(role models.Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frameCounters[role]++
	if m.frameCounters[role] < m.processEveryNth {
		return false
	}
	m.frameCounters[role] = 0
	return true
}

func (m *Manager) OnCaptureStarted(role models.Role) {
	if r := m.currentReceiver(); r != nil {
		r.OnCaptureStarted(role)
	}
}

func (m *Manager) OnCaptureStopped(role models.Role) {
	m.mu.Lock()
	m.frameCounters[role] = 0
	m.mu.Unlock()

	if r := m.currentReceiver(); r != nil {
		r.OnCaptureStopped(role)
	}
}

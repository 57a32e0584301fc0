package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"

	"stereovision/internal/logger"
	"stereovision/internal/models"
	"stereovision/internal/vision"
)

type recordingReceiver struct {
	points  map[models.Role][][]models.Point
	started []models.Role
	stopped []models.Role
}

func (r *recordingReceiver) OnFrameResult(role models.Role, points []models.Point) {
	if r.points == nil {
		r.points = map[models.Role][][]models.Point{}
	}
	r.points[role] = append(r.points[role], points)
}

func (r *recordingReceiver) OnCaptureStarted(role models.Role) { r.started = append(r.started, role) }
func (r *recordingReceiver) OnCaptureStopped(role models.Role) { r.stopped = append(r.stopped, role) }

type countingDisplay struct {
	shown map[models.Role]int
}

func (d *countingDisplay) ShowFrame(role models.Role, frame, mask, morph gocv.Mat) {
	if d.shown == nil {
		d.shown = map[models.Role]int{}
	}
	d.shown[role]++
}

func TestManager_RoutesPointsEveryFrame(t *testing.T) {
	display := &countingDisplay{}
	receiver := &recordingReceiver{}
	m := NewManager(display, 3, logger.Discard())
	m.Attach(receiver)

	result := &vision.FrameResult{Points: []models.Point{{X: 1, Y: 2}}}
	for i := 0; i < 7; i++ {
		m.OnFrameResult(models.RoleFirst, result)
	}
	m.OnFrameResult(models.RoleSecond, result)

	assert.Len(t, receiver.points[models.RoleFirst], 7)
	assert.Len(t, receiver.points[models.RoleSecond], 1)
	assert.Equal(t, 2, display.shown[models.RoleFirst])
	assert.Equal(t, 0, display.shown[models.RoleSecond])
}

func TestManager_CaptureNotifications(t *testing.T) {
	receiver := &recordingReceiver{}
	m := NewManager(nil, 1, logger.Discard())

	// nothing attached yet
	m.OnCaptureStarted(models.RoleFirst)
	m.OnFrameResult(models.RoleFirst, &vision.FrameResult{})

	m.Attach(receiver)
	m.OnCaptureStarted(models.RoleSecond)
	m.OnCaptureStopped(models.RoleSecond)

	assert.Equal(t, []models.Role{models.RoleSecond}, receiver.started)
	assert.Equal(t, []models.Role{models.RoleSecond}, receiver.stopped)
}

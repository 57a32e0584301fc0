// Package display pushes frames, distances and capture state to connected
// viewers.
package display

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"gocv.io/x/gocv"

	"stereovision/internal/logger"
	"stereovision/internal/models"
)

// Message types sent to viewers.
const (
	TypeFrame    = "frame"
	TypeDistance = "distance"
	TypeCapture  = "capture"
)

// Broadcaster delivers a message to every viewer without blocking.
type Broadcaster interface {
	Broadcast(message []byte) bool
	GetClientCount() int
}

type FrameMessage struct {
	Type   string      `json:"type"`
	Camera models.Role `json:"camera"`
	Image  string      `json:"image"`
	Mask   string      `json:"mask"`
	Morph  string      `json:"morph"`
}

type DistanceMessage struct {
	Type string `json:"type"`
	models.DistanceResult
}

type CaptureMessage struct {
	Type   string      `json:"type"`
	Camera models.Role `json:"camera"`
	Active bool        `json:"active"`
}

// Service renders pipeline and session output for the viewers. Every method
// may be called from a worker goroutine and returns without waiting on the
// network.
type Service struct {
	hub     Broadcaster
	logger  *logger.Logger
	dropped atomic.Int64
}

func NewService(hub Broadcaster, logger *logger.Logger) *Service {
	return &Service{hub: hub, logger: logger}
}

// Dropped returns how many messages were discarded because the viewer
// queue was full.
func (s *Service) Dropped() int64 {
	return s.dropped.Load()
}

// ShowFrame encodes the three images of one tick as JPEG. Nothing is encoded
// while no viewer is connected.
func (s *Service) ShowFrame(role models.Role, frame, mask, morph gocv.Mat) {
	if s.hub.GetClientCount() == 0 {
		return
	}

	msg := FrameMessage{Type: TypeFrame, Camera: role}
	for _, img := range []struct {
		dst *string
		mat gocv.Mat
	}{
		{&msg.Image, frame},
		{&msg.Mask, mask},
		{&msg.Morph, morph},
	} {
		data, err := EncodeJPEG(img.mat)
		if err != nil {
			s.logger.Warning("Camera %s: failed to encode frame: %v", role, err)
			return
		}
		*img.dst = base64.StdEncoding.EncodeToString(data)
	}
	s.send(msg)
}

// ShowDistance publishes one triangulation result.
func (s *Service) ShowDistance(result models.DistanceResult) {
	s.send(DistanceMessage{Type: TypeDistance, DistanceResult: result})
}

func (s *Service) CaptureStarted(role models.Role) {
	s.send(CaptureMessage{Type: TypeCapture, Camera: role, Active: true})
}

func (s *Service) CaptureStopped(role models.Role) {
	s.send(CaptureMessage{Type: TypeCapture, Camera: role, Active: false})
}

func (s *Service) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to marshal display message: %v", err)
		return
	}
	if !s.hub.Broadcast(data) {
		s.dropped.Add(1)
	}
}

// EncodeJPEG returns a copy of mat encoded as JPEG.
func EncodeJPEG(mat gocv.Mat) ([]byte, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("empty image")
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	image := make([]byte, len(buf.GetBytes()))
	copy(image, buf.GetBytes())
	return image, nil
}

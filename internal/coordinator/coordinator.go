// Package coordinator owns the two camera slots of the stereo rig and the
// triangulation session that runs while both are active.
package coordinator

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"stereovision/internal/logger"
	"stereovision/internal/models"
	"stereovision/internal/triangulation"
	"stereovision/internal/tuning"
)

var (
	ErrDeviceInUse     = errors.New("device is already used by the other camera")
	ErrSlotActive      = errors.New("camera slot is already active")
	ErrSlotInactive    = errors.New("camera slot is not active")
	ErrInvalidSettings = errors.New("invalid settings")
	ErrInvalidDevice   = errors.New("device id must not be negative")
)

// FramePipeline is one camera's capture loop as seen by the coordinator.
type FramePipeline interface {
	Open() error
	Start() error
	Close() error
	Reschedule() error
	IsOpen() bool
}

// PipelineFactory builds a pipeline for role reading from deviceID.
type PipelineFactory func(role models.Role, deviceID int) FramePipeline

// Display is the presentation side of the coordinator.
type Display interface {
	triangulation.ResultSink
	CaptureStarted(role models.Role)
	CaptureStopped(role models.Role)
}

type slot struct {
	active   bool
	deviceID int
	pipeline FramePipeline
	pair     models.PointPair
}

// SlotStatus is a read-only view of one slot.
type SlotStatus struct {
	Role     models.Role      `json:"role"`
	Active   bool             `json:"active"`
	DeviceID int              `json:"device_id"`
	Pair     models.PointPair `json:"pair"`
}

// Status is a read-only view of the whole rig.
type Status struct {
	Slots     []SlotStatus `json:"slots"`
	SessionID string       `json:"session_id,omitempty"`
}

// Coordinator routes settings to the pipelines, normalizes their points and
// keeps exactly one triangulation session alive while both slots are active.
type Coordinator struct {
	store       *tuning.Store
	newPipeline PipelineFactory
	display     Display
	logger      *logger.Logger

	mu      sync.Mutex
	slots   [2]slot
	session *triangulation.Session

	// written from session ticks, which must not take mu
	last atomic.Pointer[models.DistanceResult]
}

func New(store *tuning.Store, factory PipelineFactory, display Display, logger *logger.Logger) *Coordinator {
	return &Coordinator{
		store:       store,
		newPipeline: factory,
		display:     display,
		logger:      logger,
	}
}

// StartSlot moves role from inactive to active on deviceID. It is rejected
// when the other slot already holds deviceID. Negative ids, which OpenCV
// reads as "any camera", are rejected.
func (c *Coordinator) StartSlot(role models.Role, deviceID int) error {
	if deviceID < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDevice, deviceID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := &c.slots[role]
	if s.active {
		return fmt.Errorf("%w: %s", ErrSlotActive, role)
	}
	if other := c.slots[role.Other()]; other.active && other.deviceID == deviceID {
		return fmt.Errorf("%w: device %d held by %s", ErrDeviceInUse, deviceID, role.Other())
	}

	pipeline := c.newPipeline(role, deviceID)
	if err := pipeline.Open(); err != nil {
		return fmt.Errorf("camera %s: %w", role, err)
	}
	if err := pipeline.Start(); err != nil {
		pipeline.Close()
		return fmt.Errorf("camera %s: %w", role, err)
	}

	*s = slot{active: true, deviceID: deviceID, pipeline: pipeline}
	c.logger.Info("Camera %s active on device %d", role, deviceID)
	return nil
}

// StopSlot moves role from active to inactive, tearing down the session
// first and then releasing the device.
func (c *Coordinator) StopSlot(role models.Role) error {
	c.mu.Lock()
	s := &c.slots[role]
	if !s.active {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSlotInactive, role)
	}
	pipeline := s.pipeline
	*s = slot{}
	c.stopSessionLocked()
	c.mu.Unlock()

	// the pipeline's in-flight tick may be waiting on c.mu
	if err := pipeline.Close(); err != nil {
		c.logger.Warning("Camera %s: stop anomaly: %v", role, err)
	}
	c.logger.Info("Camera %s inactive", role)
	return nil
}

// ToggleSlot keeps the single start/stop button semantics: an active slot is
// stopped whatever deviceID is passed, an inactive one is started.
func (c *Coordinator) ToggleSlot(role models.Role, deviceID int) (active bool, err error) {
	if c.SlotActive(role) {
		if err := c.StopSlot(role); err != nil && !errors.Is(err, ErrSlotInactive) {
			return true, err
		}
		return false, nil
	}
	if err := c.StartSlot(role, deviceID); err != nil {
		return false, err
	}
	return true, nil
}

// SlotActive reports whether role is active.
func (c *Coordinator) SlotActive(role models.Role) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots[role].active
}

// SessionActive reports whether a triangulation session exists.
func (c *Coordinator) SessionActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Status returns a snapshot of both slots and the session.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{}
	for _, role := range models.Roles {
		s := c.slots[role]
		st.Slots = append(st.Slots, SlotStatus{Role: role, Active: s.active, DeviceID: s.deviceID, Pair: s.pair})
	}
	if c.session != nil {
		st.SessionID = c.session.ID()
	}
	return st
}

// OnFrameResult stores the points reported by role's pipeline, normalized
// into a lower/upper pair, and re-evaluates the session. Results from a slot
// that is no longer active are dropped.
func (c *Coordinator) OnFrameResult(role models.Role, points []models.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &c.slots[role]
	if !s.active {
		return
	}
	if pair, ok := models.PairFromPoints(points); ok {
		s.pair = pair
	}
	c.evaluateSessionLocked()
}

func (c *Coordinator) evaluateSessionLocked() {
	first, second := c.slots[models.RoleFirst], c.slots[models.RoleSecond]
	if !first.active || !second.active {
		c.stopSessionLocked()
		return
	}

	if c.session != nil {
		c.session.SetPoints(first.pair, second.pair)
		return
	}

	session := triangulation.NewSession(c.store, sessionSink{c}, c.logger)
	session.SetPoints(first.pair, second.pair)
	if err := session.Start(); err != nil {
		c.logger.Error("Failed to start triangulation session: %v", err)
		return
	}
	c.session = session
}

func (c *Coordinator) stopSessionLocked() {
	if c.session == nil {
		return
	}
	if err := c.session.Stop(); err != nil {
		c.logger.Warning("Triangulation session %s: stop anomaly: %v", c.session.ID(), err)
	}
	c.session = nil
}

// sessionSink records the last result before handing it to the display.
type sessionSink struct {
	c *Coordinator
}

func (s sessionSink) ShowDistance(result models.DistanceResult) {
	s.c.recordDistance(result)
	if s.c.display != nil {
		s.c.display.ShowDistance(result)
	}
}

func (c *Coordinator) recordDistance(result models.DistanceResult) {
	c.last.Store(&result)
}

// LastDistance returns the most recent measurement of any session.
func (c *Coordinator) LastDistance() (models.DistanceResult, bool) {
	last := c.last.Load()
	if last == nil {
		return models.DistanceResult{}, false
	}
	return *last, true
}

// OnCaptureStarted forwards the pipeline notification to the display.
func (c *Coordinator) OnCaptureStarted(role models.Role) {
	if c.display != nil {
		c.display.CaptureStarted(role)
	}
}

// OnCaptureStopped forwards the pipeline notification to the display.
func (c *Coordinator) OnCaptureStopped(role models.Role) {
	if c.display != nil {
		c.display.CaptureStopped(role)
	}
}

// Settings returns the current settings snapshot.
func (c *Coordinator) Settings() models.Settings {
	return c.store.Load()
}

// UpdateColorRange publishes a new segmentation range. Pipelines pick it up
// on their next tick.
func (c *Coordinator) UpdateColorRange(r models.ColorRange) (models.Settings, error) {
	if err := r.Validate(); err != nil {
		return c.store.Load(), fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	_, next, _ := c.store.Update(func(s *models.Settings) error {
		s.Color = r
		return nil
	})
	return next, nil
}

// UpdateCalibration publishes new calibration parameters. The session picks
// them up on its next tick; an unknown method is reported there.
func (c *Coordinator) UpdateCalibration(p models.CalibrationParams) (models.Settings, error) {
	if err := p.Validate(); err != nil {
		return c.store.Load(), fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	_, next, _ := c.store.Update(func(s *models.Settings) error {
		s.Calibration = p
		return nil
	})
	return next, nil
}

// UpdateTiming publishes new timing and restarts every running periodic task
// with it.
func (c *Coordinator) UpdateTiming(t models.Timing) (models.Settings, error) {
	if err := t.Validate(); err != nil {
		return c.store.Load(), fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	prev, next, _ := c.store.Update(func(s *models.Settings) error {
		s.Timing = t
		return nil
	})
	if prev.Timing != next.Timing {
		c.rescheduleAll()
	}
	return next, nil
}

// ApplySettings replaces the whole settings value, as when loading a preset.
func (c *Coordinator) ApplySettings(next models.Settings) (models.Settings, error) {
	if err := next.Validate(); err != nil {
		return c.store.Load(), fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	prev := c.store.Replace(next)
	if prev.Timing != next.Timing {
		c.rescheduleAll()
	}
	return next, nil
}

func (c *Coordinator) rescheduleAll() {
	c.mu.Lock()
	var pipelines []FramePipeline
	for _, role := range models.Roles {
		if s := c.slots[role]; s.active {
			pipelines = append(pipelines, s.pipeline)
		}
	}
	session := c.session
	c.mu.Unlock()

	// both reschedule calls wait for an in-flight tick, which may need mu
	for _, p := range pipelines {
		if err := p.Reschedule(); err != nil {
			c.logger.Warning("Reschedule pipeline: %v", err)
		}
	}
	if session != nil {
		if err := session.Reschedule(); err != nil {
			c.logger.Warning("Reschedule session %s: %v", session.ID(), err)
		}
	}
}

// Shutdown stops both slots.
func (c *Coordinator) Shutdown() {
	for _, role := range models.Roles {
		if err := c.StopSlot(role); err != nil && !errors.Is(err, ErrSlotInactive) {
			c.logger.Warning("Shutdown camera %s: %v", role, err)
		}
	}
}

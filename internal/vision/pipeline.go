// Package vision turns a capture device into a stream of segmented frames
// and object points.
package vision

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"stereovision/internal/logger"
	"stereovision/internal/models"
	"stereovision/internal/scheduler"
	"stereovision/internal/tuning"
)

// Sink receives pipeline output. OnFrameResult runs on the pipeline's tick
// goroutine; the result must not be retained after it returns.
type Sink interface {
	OnFrameResult(role models.Role, result *FrameResult)
	OnCaptureStarted(role models.Role)
	OnCaptureStopped(role models.Role)
}

// Pipeline grabs and segments one frame per tick from a single device.
type Pipeline struct {
	role      models.Role
	deviceID  int
	store     *tuning.Store
	sink      Sink
	logger    *logger.Logger
	opener    Opener
	blur      bool
	scheduler *scheduler.Scheduler

	mu      sync.Mutex
	capture Capture
	closed  bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOpener replaces the OpenCV device opener.
func WithOpener(opener Opener) Option {
	return func(p *Pipeline) { p.opener = opener }
}

// WithBlur toggles the 5x5 denoising blur.
func WithBlur(enabled bool) Option {
	return func(p *Pipeline) { p.blur = enabled }
}

func NewPipeline(role models.Role, deviceID int, store *tuning.Store, sink Sink, logger *logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		role:      role,
		deviceID:  deviceID,
		store:     store,
		sink:      sink,
		logger:    logger,
		opener:    OpenDevice,
		blur:      true,
		scheduler: scheduler.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Role() models.Role { return p.role }
func (p *Pipeline) DeviceID() int     { return p.deviceID }

// IsOpen reports whether the capture device is held.
func (p *Pipeline) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capture != nil
}

// Open acquires the capture device. On failure nothing is held and the
// pipeline must not be started.
func (p *Pipeline) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.capture != nil {
		return nil
	}

	capture, err := p.opener(p.deviceID)
	if err != nil {
		return err
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("%w: device %d", ErrDeviceNotOpened, p.deviceID)
	}
	p.capture = capture
	p.closed = false

	p.logger.Info("📹 Camera %s: device %d opened", p.role, p.deviceID)
	if p.sink != nil {
		p.sink.OnCaptureStarted(p.role)
	}
	return nil
}

// Start begins the tick loop with the current timing settings.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.capture == nil {
		return ErrNotOpen
	}
	timing := p.store.Load().Timing
	return p.scheduler.Start(p.tick, timing.Delay(), timing.Period())
}

// Reschedule restarts the tick loop with the current timing settings. It is
// a no-op when the pipeline is not open.
func (p *Pipeline) Reschedule() error {
	if !p.IsOpen() {
		return nil
	}
	if err := p.scheduler.Stop(); err != nil {
		p.logger.Warning("Camera %s: reschedule stop: %v", p.role, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.capture == nil || p.closed {
		return nil
	}
	timing := p.store.Load().Timing
	return p.scheduler.Start(p.tick, timing.Delay(), timing.Period())
}

// Close stops the tick loop and releases the device. It is safe to call on a
// pipeline that was never opened. A tick that outlives the stop bound is
// logged and the device is released regardless.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	capture := p.capture
	p.capture = nil
	p.closed = true
	p.mu.Unlock()

	stopErr := p.scheduler.Stop()
	if stopErr != nil {
		p.logger.Warning("Camera %s: %v, releasing device anyway", p.role, stopErr)
	}
	if capture == nil {
		return stopErr
	}
	if err := capture.Close(); err != nil {
		p.logger.Error("Camera %s: failed to release device %d: %v", p.role, p.deviceID, err)
	}

	p.logger.Info("🛑 Camera %s: device %d released", p.role, p.deviceID)
	if p.sink != nil {
		p.sink.OnCaptureStopped(p.role)
	}
	return stopErr
}

func (p *Pipeline) currentCapture() Capture {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	return p.capture
}

func (p *Pipeline) tick() {
	capture := p.currentCapture()
	if capture == nil {
		return
	}
	settings := p.store.Load()

	raw := gocv.NewMat()
	defer raw.Close()
	if ok := capture.Read(&raw); !ok || raw.Empty() {
		return
	}

	result, err := Process(raw, settings, p.blur)
	if err != nil {
		p.logger.Warning("Camera %s: frame skipped: %v", p.role, err)
		return
	}
	defer result.Close()

	if p.sink != nil {
		p.sink.OnFrameResult(p.role, result)
	}
}

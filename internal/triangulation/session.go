package triangulation

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"stereovision/internal/logger"
	"stereovision/internal/models"
	"stereovision/internal/scheduler"
	"stereovision/internal/tuning"
)

// ResultSink receives every successful measurement.
type ResultSink interface {
	ShowDistance(result models.DistanceResult)
}

// Session triangulates on its own periodic schedule while both cameras run.
// Settings are read from the store at the start of every tick.
type Session struct {
	id        string
	store     *tuning.Store
	sink      ResultSink
	logger    *logger.Logger
	scheduler *scheduler.Scheduler
	now       func() time.Time

	mu          sync.Mutex
	first       models.PointPair
	second      models.PointPair
	lowerWindow []float64
	upperWindow []float64
	windowCalib models.CalibrationParams // calibration the windows were filled with
	last        models.DistanceResult
	hasLast     bool
	stopped     bool
}

func NewSession(store *tuning.Store, sink ResultSink, logger *logger.Logger) *Session {
	return &Session{
		id:        uuid.NewString(),
		store:     store,
		sink:      sink,
		logger:    logger,
		scheduler: scheduler.New(),
		now:       time.Now,
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// SetPoints replaces the normalized point pairs of both cameras.
func (s *Session) SetPoints(first, second models.PointPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.first = first
	s.second = second
}

// Start schedules the session with the current timing settings.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errors.New("session already stopped")
	}

	timing := s.store.Load().Timing
	if err := s.scheduler.Start(s.tick, timing.Delay(), timing.Period()); err != nil {
		return err
	}
	s.logger.Info("📐 Triangulation session %s started (period %v)", s.id, timing.Period())
	return nil
}

// Reschedule restarts the timer with the current timing settings. It does
// nothing once the session has been stopped.
func (s *Session) Reschedule() error {
	if s.Stopped() {
		return nil
	}
	// the in-flight tick needs s.mu, so stop without holding it
	if err := s.scheduler.Stop(); err != nil {
		s.logger.Warning("Session %s: reschedule stop: %v", s.id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	timing := s.store.Load().Timing
	return s.scheduler.Start(s.tick, timing.Delay(), timing.Period())
}

// Stop halts the schedule. It is idempotent; a tick still running when Stop
// returns will not emit.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	err := s.scheduler.Stop()
	if err != nil {
		s.logger.Warning("Session %s: %v", s.id, err)
	}
	s.logger.Info("🛑 Triangulation session %s stopped", s.id)
	return err
}

// Points returns the pairs the next tick will triangulate.
func (s *Session) Points() (first, second models.PointPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.first, s.second
}

// Stopped reports whether Stop has been called.
func (s *Session) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Last returns the most recent successful measurement.
func (s *Session) Last() (models.DistanceResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasLast
}

func (s *Session) tick() {
	if _, err := s.Measure(); err != nil && !errors.Is(err, errSessionStopped) {
		s.logger.Warning("Session %s: %v", s.id, err)
	}
}

var errSessionStopped = errors.New("session stopped")

// Measure runs one triangulation tick: both point pairs through the selected
// model, averaged over the measurement window, emitted to the sink. Any
// calibration change empties the window. On error the previous result stays
// the last known value.
func (s *Session) Measure() (models.DistanceResult, error) {
	calib := s.store.Load().Calibration

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return models.DistanceResult{}, errSessionStopped
	}

	lower, upper, err := Measure(calib, s.first, s.second)
	if err != nil {
		return s.last, err
	}

	if calib != s.windowCalib {
		s.lowerWindow = s.lowerWindow[:0]
		s.upperWindow = s.upperWindow[:0]
		s.windowCalib = calib
	}
	s.lowerWindow = pushWindow(s.lowerWindow, lower, calib.MeasurementNumber)
	s.upperWindow = pushWindow(s.upperWindow, upper, calib.MeasurementNumber)
	lower = stat.Mean(s.lowerWindow, nil)
	upper = stat.Mean(s.upperWindow, nil)

	result := models.DistanceResult{
		DistanceLower:  lower,
		DistanceUpper:  upper,
		ProximityEvent: models.ProximityEvent(lower, upper),
		MeasuredAt:     s.now(),
	}
	s.last = result
	s.hasLast = true

	if s.sink != nil {
		s.sink.ShowDistance(result)
	}
	return result, nil
}

// pushWindow appends v and keeps at most n values. n <= 1 keeps only v.
func pushWindow(window []float64, v float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	window = append(window, v)
	if over := len(window) - n; over > 0 {
		window = append(window[:0], window[over:]...)
	}
	return window
}

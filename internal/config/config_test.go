package config

import (
	"testing"

	"stereovision/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Port)
	}
	if cfg.FramePeriodMs != 33 {
		t.Errorf("Expected frame period 33ms, got %d", cfg.FramePeriodMs)
	}
	if cfg.FirstDevice != -1 || cfg.SecondDevice != -1 {
		t.Errorf("Expected no auto-start devices, got %d/%d", cfg.FirstDevice, cfg.SecondDevice)
	}
	if !cfg.BlurEnabled {
		t.Error("Expected blur enabled by default")
	}
	if !cfg.VerticalAccounting {
		t.Error("Expected vertical accounting enabled by default")
	}
	if cfg.DisplayEveryNth != 1 {
		t.Errorf("Expected every frame displayed, got every %d", cfg.DisplayEveryNth)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FRAME_PERIOD_MS", "50")
	t.Setenv("FOCAL_LENGTH", "700.5")
	t.Setenv("VERTICAL_ACCOUNTING", "false")
	t.Setenv("BLUR_ENABLED", "false")
	t.Setenv("VIDEO_QUALITY", "480p")
	t.Setenv("METHOD", "not-a-number")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.FramePeriodMs != 50 {
		t.Errorf("Expected frame period 50, got %d", cfg.FramePeriodMs)
	}
	if cfg.FocalLength != 700.5 {
		t.Errorf("Expected focal length 700.5, got %g", cfg.FocalLength)
	}
	if cfg.VerticalAccounting {
		t.Error("Expected vertical accounting disabled")
	}
	if cfg.BlurEnabled {
		t.Error("Expected blur disabled")
	}
	if cfg.Method != models.MethodFocalLength {
		t.Errorf("Invalid METHOD should fall back to default, got %d", cfg.Method)
	}

	s, err := cfg.InitialSettings()
	if err != nil {
		t.Fatalf("InitialSettings failed: %v", err)
	}
	if s.Calibration.Quality != models.QualityHigh {
		t.Errorf("Expected 480p, got %s", s.Calibration.Quality)
	}
	if s.Timing.Period().Milliseconds() != 50 {
		t.Errorf("Expected 50ms period, got %v", s.Timing.Period())
	}
}

func TestInitialSettings_Invalid(t *testing.T) {
	cfg := Load()
	cfg.VideoQuality = "4k"
	if _, err := cfg.InitialSettings(); err == nil {
		t.Error("Expected error for unknown video quality")
	}

	cfg = Load()
	cfg.FramePeriodMs = 0
	if _, err := cfg.InitialSettings(); err == nil {
		t.Error("Expected error for zero frame period")
	}
}

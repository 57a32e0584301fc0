package models

import (
	"errors"
	"fmt"
	"time"
)

// Triangulation model selectors.
const (
	MethodFocalLength = 1
	MethodPixelRatio  = 2
)

// ColorRange is the HSV threshold window used to segment the tracked object.
// Hue is in OpenCV's 0-180 range, saturation and value in 0-255.
type ColorRange struct {
	HueStart        float64 `json:"hue_start"`
	HueStop         float64 `json:"hue_stop"`
	SaturationStart float64 `json:"saturation_start"`
	SaturationStop  float64 `json:"saturation_stop"`
	ValueStart      float64 `json:"value_start"`
	ValueStop       float64 `json:"value_stop"`
}

// DefaultColorRange accepts every pixel.
func DefaultColorRange() ColorRange {
	return ColorRange{
		HueStop:        180,
		SaturationStop: 255,
		ValueStop:      255,
	}
}

// Validate checks that every window is ordered and within the HSV bounds.
func (c ColorRange) Validate() error {
	check := func(name string, start, stop, max float64) error {
		if start < 0 || stop > max || start > stop {
			return fmt.Errorf("%s range [%g, %g] outside [0, %g] or inverted", name, start, stop, max)
		}
		return nil
	}
	return errors.Join(
		check("hue", c.HueStart, c.HueStop, 180),
		check("saturation", c.SaturationStart, c.SaturationStop, 255),
		check("value", c.ValueStart, c.ValueStop, 255),
	)
}

// CalibrationParams are the rig constants read by the triangulation engine
// and the frame pipelines at the start of every tick.
type CalibrationParams struct {
	FocalLength        float64 `json:"focal_length"`
	Baseline           float64 `json:"baseline"`
	Ratio              float64 `json:"ratio"`
	Method             int     `json:"method"`
	Quality            Quality `json:"quality"`
	MeasurementNumber  int     `json:"measurement_number"`
	VerticalAccounting bool    `json:"vertical_accounting"`
}

// DefaultCalibration returns the constants of the reference rig.
func DefaultCalibration() CalibrationParams {
	return CalibrationParams{
		FocalLength:        865,
		Baseline:           130,
		Ratio:              26.5,
		Method:             MethodFocalLength,
		Quality:            QualityHighest,
		MeasurementNumber:  10,
		VerticalAccounting: true,
	}
}

// Validate rejects values no tick could use. The model selector is not
// checked here: an unknown selector fails each triangulation tick instead.
func (c CalibrationParams) Validate() error {
	var errs []error
	if c.Baseline <= 0 {
		errs = append(errs, fmt.Errorf("baseline must be positive, got %g", c.Baseline))
	}
	if c.FocalLength < 0 {
		errs = append(errs, fmt.Errorf("focal length must not be negative, got %g", c.FocalLength))
	}
	if c.Ratio < 0 {
		errs = append(errs, fmt.Errorf("ratio must not be negative, got %g", c.Ratio))
	}
	if c.MeasurementNumber < 0 {
		errs = append(errs, fmt.Errorf("measurement number must not be negative, got %d", c.MeasurementNumber))
	}
	if _, err := ParseQuality(string(c.Quality)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Timing drives every periodic worker.
type Timing struct {
	PeriodMs int64 `json:"period_ms"`
	DelayMs  int64 `json:"delay_ms"`
}

// DefaultTiming runs workers at roughly 30 Hz with no start delay.
func DefaultTiming() Timing {
	return Timing{PeriodMs: 33}
}

func (t Timing) Period() time.Duration { return time.Duration(t.PeriodMs) * time.Millisecond }
func (t Timing) Delay() time.Duration  { return time.Duration(t.DelayMs) * time.Millisecond }

func (t Timing) Validate() error {
	if t.PeriodMs <= 0 {
		return fmt.Errorf("frame period must be positive, got %dms", t.PeriodMs)
	}
	if t.DelayMs < 0 {
		return fmt.Errorf("start delay must not be negative, got %dms", t.DelayMs)
	}
	return nil
}

// Settings is the shared tunable state. It is replaced wholesale on every
// update and never mutated in place.
type Settings struct {
	Color       ColorRange        `json:"color"`
	Calibration CalibrationParams `json:"calibration"`
	Timing      Timing            `json:"timing"`
}

// DefaultSettings combines the default color range, calibration and timing.
func DefaultSettings() Settings {
	return Settings{
		Color:       DefaultColorRange(),
		Calibration: DefaultCalibration(),
		Timing:      DefaultTiming(),
	}
}

func (s Settings) Validate() error {
	return errors.Join(s.Color.Validate(), s.Calibration.Validate(), s.Timing.Validate())
}

package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"stereovision/internal/models"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrPresetExists   = errors.New("preset with this name already exists")
)

// PresetRepository implements repository.PresetRepository for SQLite.
type PresetRepository struct {
	db *DB
}

// NewPresetRepository creates a new SQLite preset repository.
func NewPresetRepository(db *DB) *PresetRepository {
	return &PresetRepository{db: db}
}

const presetColumns = `id, name, hue_start, hue_stop, saturation_start, saturation_stop,
	value_start, value_stop, focal_length, frame_period_ms, start_delay_ms, method,
	baseline, ratio, quality, measurement_number, vertical_accounting, created_at`

// Insert stores a new preset and returns its id. Names are unique.
func (r *PresetRepository) Insert(p *models.Preset) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	s := p.Settings
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	result, err := r.db.Conn().Exec(`
		INSERT INTO presets (name, hue_start, hue_stop, saturation_start, saturation_stop,
			value_start, value_stop, focal_length, frame_period_ms, start_delay_ms, method,
			baseline, ratio, quality, measurement_number, vertical_accounting, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Name,
		s.Color.HueStart, s.Color.HueStop,
		s.Color.SaturationStart, s.Color.SaturationStop,
		s.Color.ValueStart, s.Color.ValueStop,
		s.Calibration.FocalLength, s.Timing.PeriodMs, s.Timing.DelayMs, s.Calibration.Method,
		s.Calibration.Baseline, s.Calibration.Ratio, string(s.Calibration.Quality),
		s.Calibration.MeasurementNumber, s.Calibration.VerticalAccounting, createdAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("%w: %s", ErrPresetExists, p.Name)
		}
		return 0, fmt.Errorf("failed to insert preset: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a preset by its ID.
func (r *PresetRepository) GetByID(id int64) (*models.Preset, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+presetColumns+` FROM presets WHERE id = ?`, id)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrPresetNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preset: %w", err)
	}
	return p, nil
}

// GetByName retrieves a preset by its name.
func (r *PresetRepository) GetByName(name string) (*models.Preset, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+presetColumns+` FROM presets WHERE name = ?`, name)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preset: %w", err)
	}
	return p, nil
}

// GetAll returns every preset, oldest first.
func (r *PresetRepository) GetAll() ([]models.Preset, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT ` + presetColumns + ` FROM presets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query presets: %w", err)
	}
	defer rows.Close()

	presets := []models.Preset{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preset: %w", err)
		}
		presets = append(presets, *p)
	}
	return presets, rows.Err()
}

// Delete removes a preset by its ID.
func (r *PresetRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`DELETE FROM presets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrPresetNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(row scanner) (*models.Preset, error) {
	var (
		p       models.Preset
		quality string
	)
	s := &p.Settings
	err := row.Scan(&p.ID, &p.Name,
		&s.Color.HueStart, &s.Color.HueStop,
		&s.Color.SaturationStart, &s.Color.SaturationStop,
		&s.Color.ValueStart, &s.Color.ValueStop,
		&s.Calibration.FocalLength, &s.Timing.PeriodMs, &s.Timing.DelayMs, &s.Calibration.Method,
		&s.Calibration.Baseline, &s.Calibration.Ratio, &quality,
		&s.Calibration.MeasurementNumber, &s.Calibration.VerticalAccounting, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	q, err := models.ParseQuality(quality)
	if err != nil {
		return nil, err
	}
	s.Calibration.Quality = q
	return &p, nil
}

package repository

import (
	"stereovision/internal/models"
)

// PresetRepository defines the interface for settings preset operations.
type PresetRepository interface {
	// Create operations
	Insert(preset *models.Preset) (int64, error)

	// Read operations
	GetByID(id int64) (*models.Preset, error)
	GetByName(name string) (*models.Preset, error)
	GetAll() ([]models.Preset, error)

	// Delete operations
	Delete(id int64) error
}

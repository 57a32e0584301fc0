package models

import "time"

// Preset is a named, persisted copy of Settings.
type Preset struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
}

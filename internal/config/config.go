package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"stereovision/internal/models"
)

type Config struct {
	Port            int
	Password        string
	DatabasePath    string
	LogDirectory    string
	BlurEnabled     bool
	DisplayEveryNth int // Co którą klatkę wysyłać do podglądu

	FramePeriodMs      int64 // Okres taktu wszystkich workerów (ms)
	StartDelayMs       int64
	FocalLength        float64
	Baseline           float64 // Odległość między kamerami
	PixelRatio         float64
	Method             int
	VideoQuality       string
	MeasurementNumber  int // Liczba pomiarów do uśredniania
	VerticalAccounting bool

	FirstDevice  int // -1 = nie uruchamiaj automatycznie
	SecondDevice int
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	defaults := models.DefaultSettings()
	return &Config{
		Port:            getEnvAsInt("PORT", 8080),
		Password:        getEnv("PASSWORD", "stereo"),
		DatabasePath:    getEnv("DB_PATH", filepath.Join(".", "data", "stereo.db")),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),
		BlurEnabled:     getEnvAsBool("BLUR_ENABLED", true),
		DisplayEveryNth: getEnvAsInt("DISPLAY_EVERY_NTH", 1),

		FramePeriodMs:      getEnvAsInt64("FRAME_PERIOD_MS", defaults.Timing.PeriodMs),
		StartDelayMs:       getEnvAsInt64("START_DELAY_MS", defaults.Timing.DelayMs),
		FocalLength:        getEnvAsFloat("FOCAL_LENGTH", defaults.Calibration.FocalLength),
		Baseline:           getEnvAsFloat("BASELINE", defaults.Calibration.Baseline),
		PixelRatio:         getEnvAsFloat("PIXEL_RATIO", defaults.Calibration.Ratio),
		Method:             getEnvAsInt("METHOD", defaults.Calibration.Method),
		VideoQuality:       getEnv("VIDEO_QUALITY", string(defaults.Calibration.Quality)),
		MeasurementNumber:  getEnvAsInt("MEASUREMENT_NUMBER", defaults.Calibration.MeasurementNumber),
		VerticalAccounting: getEnvAsBool("VERTICAL_ACCOUNTING", defaults.Calibration.VerticalAccounting),

		FirstDevice:  getEnvAsInt("FIRST_DEVICE", -1),
		SecondDevice: getEnvAsInt("SECOND_DEVICE", -1),
	}
}

// InitialSettings builds the shared Settings value the server starts with.
func (c *Config) InitialSettings() (models.Settings, error) {
	quality, err := models.ParseQuality(c.VideoQuality)
	if err != nil {
		return models.Settings{}, err
	}
	s := models.Settings{
		Color: models.DefaultColorRange(),
		Calibration: models.CalibrationParams{
			FocalLength:        c.FocalLength,
			Baseline:           c.Baseline,
			Ratio:              c.PixelRatio,
			Method:             c.Method,
			Quality:            quality,
			MeasurementNumber:  c.MeasurementNumber,
			VerticalAccounting: c.VerticalAccounting,
		},
		Timing: models.Timing{
			PeriodMs: c.FramePeriodMs,
			DelayMs:  c.StartDelayMs,
		},
	}
	return s, s.Validate()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

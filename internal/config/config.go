// Package config loads pipeline settings from an optional YAML file,
// with environment overrides for database credentials.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

type DatasetConfig struct {
	Seed       int64  `yaml:"seed"`
	Students   int    `yaml:"students"`
	Counselors int    `yaml:"counselors"`
	StartDate  string `yaml:"start_date"`
	EndDate    string `yaml:"end_date"`
}

type PathsConfig struct {
	Input     string `yaml:"input"`
	OutputDir string `yaml:"output_dir"`
	Warehouse string `yaml:"warehouse"`
}

type AnalysisConfig struct {
	TargetWaitDays             float64 `yaml:"target_wait_days"`
	StandardWeeklyAppointments int     `yaml:"standard_weekly_appointments"`
	MinSegmentVisits           int     `yaml:"min_segment_visits"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

type DatabaseConfig struct {
	URL    string `yaml:"url"`
	Schema string `yaml:"schema"`
	Tag    string `yaml:"tag"`
}

type Config struct {
	Dataset  DatasetConfig  `yaml:"dataset"`
	Paths    PathsConfig    `yaml:"paths"`
	Analysis AnalysisConfig `yaml:"analysis"`
	GCS      GCSConfig      `yaml:"gcs"`
	Database DatabaseConfig `yaml:"database"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Dataset: DatasetConfig{
			Seed:       42,
			Students:   20000,
			Counselors: 50,
			StartDate:  "2023-01-01",
			EndDate:    "2024-12-31",
		},
		Paths: PathsConfig{
			Input:     "data/counseling_appointments.csv",
			OutputDir: "output",
		},
		Analysis: AnalysisConfig{
			TargetWaitDays:             3,
			StandardWeeklyAppointments: 40,
			MinSegmentVisits:           10,
		},
		Database: DatabaseConfig{
			Schema: "gap_analysis",
		},
	}
}

// Load reads path over the defaults. An empty path returns the
// defaults; a missing file is an error. Environment variables
// GAP_ANALYSIS_DB_URL and DATABASE_URL override the database URL, in
// that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if url := firstEnv("GAP_ANALYSIS_DB_URL", "DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Dataset.Students <= 0 {
		return fmt.Errorf("dataset.students must be positive")
	}
	if c.Dataset.Counselors <= 0 {
		return fmt.Errorf("dataset.counselors must be positive")
	}
	if c.Analysis.TargetWaitDays <= 0 {
		return fmt.Errorf("analysis.target_wait_days must be positive")
	}
	if c.Analysis.MinSegmentVisits < 0 {
		return fmt.Errorf("analysis.min_segment_visits must not be negative")
	}
	start, end, err := c.Dataset.DateRange()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("dataset.end_date precedes start_date")
	}
	if c.Database.URL != "" {
		if _, err := sanitizeIdent(c.Database.Schema); err != nil {
			return fmt.Errorf("database.schema: %w", err)
		}
	}
	return nil
}

// DateRange parses the configured generation window.
func (d DatasetConfig) DateRange() (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, d.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("dataset.start_date: %w", err)
	}
	end, err := time.Parse(dateLayout, d.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("dataset.end_date: %w", err)
	}
	return start, end, nil
}

func sanitizeIdent(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("identifier is required")
	}
	for i, r := range value {
		alpha := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		digit := r >= '0' && r <= '9'
		if !alpha && !(digit && i > 0) {
			return "", fmt.Errorf("invalid identifier: %s", value)
		}
	}
	return value, nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

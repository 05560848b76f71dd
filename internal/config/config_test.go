package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Dataset.Seed)
	assert.Equal(t, 20000, cfg.Dataset.Students)
	assert.Equal(t, 50, cfg.Dataset.Counselors)
	assert.Equal(t, 3.0, cfg.Analysis.TargetWaitDays)
	assert.Equal(t, 40, cfg.Analysis.StandardWeeklyAppointments)
	assert.Equal(t, 10, cfg.Analysis.MinSegmentVisits)
	assert.Equal(t, "gap_analysis", cfg.Database.Schema)
	assert.Equal(t, "output", cfg.Paths.OutputDir)

	start, end, err := cfg.Dataset.DateRange()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset:
  seed: 7
  students: 500
analysis:
  target_wait_days: 5
gcs:
  bucket: campus-gap-artifacts
  prefix: runs
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Dataset.Seed)
	assert.Equal(t, 500, cfg.Dataset.Students)
	assert.Equal(t, 5.0, cfg.Analysis.TargetWaitDays)
	assert.Equal(t, "campus-gap-artifacts", cfg.GCS.Bucket)
	// Untouched fields keep their defaults.
	assert.Equal(t, 50, cfg.Dataset.Counselors)
	assert.Equal(t, 10, cfg.Analysis.MinSegmentVisits)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://fallback/db")
	t.Setenv("GAP_ANALYSIS_DB_URL", "postgres://primary/db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://primary/db", cfg.Database.URL)

	t.Setenv("GAP_ANALYSIS_DB_URL", "")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://fallback/db", cfg.Database.URL)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero students", func(c *Config) { c.Dataset.Students = 0 }},
		{"zero counselors", func(c *Config) { c.Dataset.Counselors = 0 }},
		{"zero target wait", func(c *Config) { c.Analysis.TargetWaitDays = 0 }},
		{"bad date", func(c *Config) { c.Dataset.StartDate = "01/01/2023" }},
		{"reversed range", func(c *Config) {
			c.Dataset.StartDate = "2024-12-31"
			c.Dataset.EndDate = "2023-01-01"
		}},
		{"bad schema", func(c *Config) {
			c.Database.URL = "postgres://host/db"
			c.Database.Schema = "bad-schema;drop"
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

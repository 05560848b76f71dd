package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campus-counseling-gap-analysis/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Dataset.Students = 400
	cfg.Dataset.Counselors = 10
	cfg.Paths.Input = filepath.Join(dir, "data", "appointments.csv")
	cfg.Paths.OutputDir = filepath.Join(dir, "output")
	return cfg
}

func TestGenerateWritesDataset(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, zap.NewNop())

	count, err := p.Generate(context.Background())
	require.NoError(t, err)
	assert.Greater(t, count, 0)

	info, err := os.Stat(cfg.Paths.Input)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, zap.NewNop())

	r, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.NotEmpty(t, r.Summary.RunID)
	assert.False(t, r.Summary.GeneratedAt.IsZero())
	assert.Equal(t, cfg.Paths.Input, r.Summary.SourcePath)
	assert.Greater(t, r.Summary.TotalRecords, 0)
	require.Len(t, r.Summary.Stages, 5)
	assert.Equal(t, "demographic_gaps", r.Summary.Stages[0].Stage)
	assert.Equal(t, "resource_needs", r.Summary.Stages[4].Stage)

	// Staffing is always recommended, so the list is never empty.
	require.NotEmpty(t, r.Recommendations)
	assert.Equal(t, "Staffing", r.Recommendations[len(r.Recommendations)-1].Category)

	for _, name := range []string{
		filepath.Join("tables", "demographic_gaps.csv"),
		filepath.Join("tables", "resource_needs.csv"),
		filepath.Join("tables", "recommendations.csv"),
		"report.json",
		filepath.Join("charts", "monthly_trends.png"),
		filepath.Join("charts", "gap_distribution.png"),
		filepath.Join("charts", "service_adequacy.png"),
	} {
		_, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, name))
		assert.NoError(t, err, name)
	}
}

func TestRunReusesExistingDataset(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, zap.NewNop())

	_, err := p.Generate(context.Background())
	require.NoError(t, err)
	before, err := os.Stat(cfg.Paths.Input)
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)

	after, err := os.Stat(cfg.Paths.Input)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.Equal(t, before.Size(), after.Size())
}

func TestRunSameSeedSameSummary(t *testing.T) {
	first := New(testConfig(t), zap.NewNop())
	second := New(testConfig(t), zap.NewNop())

	r1, err := first.Run(context.Background())
	require.NoError(t, err)
	r2, err := second.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, r1.Summary.TotalRecords, r2.Summary.TotalRecords)
	assert.Equal(t, r1.Summary.Stages, r2.Summary.Stages)
	assert.Equal(t, r1.Demographics, r2.Demographics)
	assert.Equal(t, r1.Resources, r2.Resources)
	assert.Equal(t, r1.Recommendations, r2.Recommendations)
}

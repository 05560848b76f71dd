// Package pipeline wires the batch stages end to end: dataset,
// warehouse load, aggregate queries, gap scoring, recommendations and
// output writing.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campus-counseling-gap-analysis/internal/analysis"
	"campus-counseling-gap-analysis/internal/chart"
	"campus-counseling-gap-analysis/internal/config"
	"campus-counseling-gap-analysis/internal/dataset"
	"campus-counseling-gap-analysis/internal/generator"
	"campus-counseling-gap-analysis/internal/recommend"
	"campus-counseling-gap-analysis/internal/report"
	"campus-counseling-gap-analysis/internal/storage"
	"campus-counseling-gap-analysis/internal/warehouse"
)

type Pipeline struct {
	cfg config.Config
	log *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, log: log}
}

// Generate writes a fresh synthetic dataset to the configured input
// path, replacing any existing file.
func (p *Pipeline) Generate(ctx context.Context) (int, error) {
	start, end, err := p.cfg.Dataset.DateRange()
	if err != nil {
		return 0, err
	}

	rng := rand.New(rand.NewSource(p.cfg.Dataset.Seed))
	gen := generator.New(generator.Config{
		NumStudents:   p.cfg.Dataset.Students,
		NumCounselors: p.cfg.Dataset.Counselors,
		StartDate:     start,
		EndDate:       end,
	}, rng, p.log)

	records := gen.Generate()
	if err := dataset.WriteCSV(records, p.cfg.Paths.Input); err != nil {
		return 0, fmt.Errorf("write dataset: %w", err)
	}
	p.log.Info("generated dataset",
		zap.String("path", p.cfg.Paths.Input),
		zap.Int("records", len(records)),
		zap.Int64("seed", p.cfg.Dataset.Seed))
	return len(records), nil
}

// ensureDataset generates the input file when it does not exist yet.
func (p *Pipeline) ensureDataset(ctx context.Context) error {
	if _, err := os.Stat(p.cfg.Paths.Input); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	_, err := p.Generate(ctx)
	return err
}

// Run executes the full pipeline and returns the finished report.
// Output artifacts (CSV tables, JSON report, charts) are written under
// the configured output directory; Postgres and GCS stages run only
// when configured.
func (p *Pipeline) Run(ctx context.Context) (*report.Report, error) {
	if err := p.ensureDataset(ctx); err != nil {
		return nil, err
	}

	records, invalidRows, err := dataset.ReadCSV(p.cfg.Paths.Input)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	enriched, stats := dataset.Transform(records)
	p.log.Info("transformed dataset",
		zap.Int("input", stats.Input),
		zap.Int("dropped", stats.Dropped),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("output", stats.Output))

	wh, err := warehouse.Open(p.cfg.Paths.Warehouse, p.log)
	if err != nil {
		return nil, err
	}
	defer wh.Close()

	if err := wh.Load(ctx, enriched); err != nil {
		return nil, err
	}

	r, err := p.buildReport(ctx, wh)
	if err != nil {
		return nil, err
	}
	r.Summary.RunID = uuid.New().String()
	r.Summary.GeneratedAt = time.Now().UTC()
	r.Summary.SourcePath = p.cfg.Paths.Input
	r.Summary.TotalRecords = len(records)
	r.Summary.InvalidRows = invalidRows
	r.Summary.DroppedRows = stats.Dropped
	r.Summary.DuplicateRows = stats.Duplicates
	r.Finalize()

	if err := p.writeOutputs(r); err != nil {
		return nil, err
	}

	if p.cfg.Database.URL != "" {
		runID, err := report.Store(ctx, r, report.DBConfig{
			URL:    p.cfg.Database.URL,
			Schema: p.cfg.Database.Schema,
			Tag:    p.cfg.Database.Tag,
		})
		if err != nil {
			return nil, fmt.Errorf("store report: %w", err)
		}
		p.log.Info("stored report", zap.String("run_id", runID))
	}

	if p.cfg.GCS.Bucket != "" {
		if _, err := p.Upload(ctx); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// buildReport runs the aggregate queries and the scoring engine. Any
// query failure is fatal; rows with undefined ratios are skipped and
// counted per stage.
func (p *Pipeline) buildReport(ctx context.Context, wh *warehouse.Warehouse) (*report.Report, error) {
	engine := analysis.NewEngine(p.log, analysis.Config{
		TargetWaitDays:             p.cfg.Analysis.TargetWaitDays,
		StandardWeeklyAppointments: p.cfg.Analysis.StandardWeeklyAppointments,
	})

	r := &report.Report{}

	segments, err := wh.DemographicSegments(ctx, p.cfg.Analysis.MinSegmentVisits)
	if err != nil {
		return nil, err
	}
	var skipped int
	r.Demographics, skipped = engine.ClassifyDemographics(segments)
	p.addStage(r, "demographic_gaps", len(r.Demographics), skipped)

	temporal, err := wh.TemporalDemand(ctx)
	if err != nil {
		return nil, err
	}
	r.Temporal, skipped = engine.FlagPeakDemand(temporal)
	p.addStage(r, "temporal_demand", len(r.Temporal), skipped)

	serviceStats, err := wh.ServiceTypeStats(ctx)
	if err != nil {
		return nil, err
	}
	r.ServiceTypes, skipped = engine.RateServiceAdequacy(serviceStats)
	p.addStage(r, "service_adequacy", len(r.ServiceTypes), skipped)

	populations, err := wh.PopulationStats(ctx)
	if err != nil {
		return nil, err
	}
	r.Equity, skipped = engine.ScoreEquity(populations)
	p.addStage(r, "population_equity", len(r.Equity), skipped)

	capacity, err := wh.ResourceCapacity(ctx)
	if err != nil {
		return nil, err
	}
	r.Resources, skipped = engine.ProjectResourceNeeds(capacity)
	p.addStage(r, "resource_needs", len(r.Resources), skipped)

	r.MonthlyTrends, err = wh.MonthlyTrends(ctx)
	if err != nil {
		return nil, err
	}
	r.Workloads, err = wh.CounselorWorkloads(ctx)
	if err != nil {
		return nil, err
	}

	r.Recommendations, err = recommend.Build(recommend.Inputs{
		Demographics: r.Demographics,
		Temporal:     r.Temporal,
		ServiceTypes: r.ServiceTypes,
		Equity:       r.Equity,
		Resources:    r.Resources,
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

func (p *Pipeline) addStage(r *report.Report, name string, rows int, skipped int) {
	r.Summary.Stages = append(r.Summary.Stages, report.StageSummary{
		Stage:   name,
		Rows:    rows,
		Skipped: skipped,
	})
	if skipped > 0 {
		p.log.Warn("stage skipped rows",
			zap.String("stage", name),
			zap.Int("skipped", skipped))
	}
}

func (p *Pipeline) writeOutputs(r *report.Report) error {
	out := p.cfg.Paths.OutputDir
	if err := report.WriteTables(r.Tables(), filepath.Join(out, "tables")); err != nil {
		return err
	}
	if err := report.WriteJSON(r, filepath.Join(out, "report.json")); err != nil {
		return err
	}
	charts, err := chart.RenderAll(filepath.Join(out, "charts"), r.MonthlyTrends, r.Demographics, r.ServiceTypes)
	if err != nil {
		return err
	}
	p.log.Info("wrote outputs",
		zap.String("dir", out),
		zap.Int("charts", len(charts)))
	return nil
}

// Upload pushes the raw dataset and everything under the output
// directory to the configured GCS bucket.
func (p *Pipeline) Upload(ctx context.Context) ([]string, error) {
	uploader, err := storage.NewUploader(ctx, storage.Config{
		Bucket:          p.cfg.GCS.Bucket,
		Prefix:          p.cfg.GCS.Prefix,
		CredentialsFile: p.cfg.GCS.CredentialsFile,
	}, p.log)
	if err != nil {
		return nil, err
	}
	defer uploader.Close()

	var uris []string
	if _, err := os.Stat(p.cfg.Paths.Input); err == nil {
		uri, err := uploader.UploadFile(ctx, p.cfg.Paths.Input, filepath.Base(p.cfg.Paths.Input))
		if err != nil {
			return uris, err
		}
		uris = append(uris, uri)
	}

	if _, err := os.Stat(p.cfg.Paths.OutputDir); err == nil {
		more, err := uploader.UploadDir(ctx, p.cfg.Paths.OutputDir)
		uris = append(uris, more...)
		if err != nil {
			return uris, err
		}
	}
	return uris, nil
}

package trainer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kilianp07/ridefair/config"
	"github.com/kilianp07/ridefair/core/bundle"
	"github.com/kilianp07/ridefair/core/dataset"
	"github.com/kilianp07/ridefair/core/generator"
	"github.com/kilianp07/ridefair/core/metrics"
	"github.com/kilianp07/ridefair/core/model"
	"github.com/kilianp07/ridefair/core/monitoring"
	"github.com/kilianp07/ridefair/core/seed"
	"github.com/kilianp07/ridefair/infra/logger"
)

// Source supplies the rides a pipeline trains on.
type Source interface {
	Records(ctx context.Context) ([]model.RideRecord, error)
}

// GeneratorSource produces synthetic rides.
type GeneratorSource struct {
	Config config.TrainingConfig
	Count  int
}

// Records implements Source.
func (s GeneratorSource) Records(context.Context) ([]model.RideRecord, error) {
	n := s.Count
	if n <= 0 {
		n = s.Config.RecordCount
	}
	return generator.New(s.Config).Generate(n), nil
}

// CSVSource reads historical rides from a CSV file.
type CSVSource struct {
	Path string
}

// Records implements Source. Malformed files are reported as invalid training data.
func (s CSVSource) Records(context.Context) ([]model.RideRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := dataset.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTrainingDataInvalid, s.Path, err)
	}
	return recs, nil
}

// Pipeline generates or loads rides, trains, persists the bundle and seeds
// the historical store.
type Pipeline struct {
	Config    config.TrainingConfig
	Source    Source
	Store     bundle.Store
	Seed      seed.Sink
	SeedLimit int
	Recorder  metrics.TrainingRecorder
	Log       logger.Logger
}

// Result summarises a pipeline run. SeedErr is informational only.
type Result struct {
	Bundle       *bundle.Bundle
	Records      int
	ScamFraction float64
	Seeded       int
	SeedErr      error
	Duration     time.Duration
}

// Run executes the pipeline. Only data, training and artifact errors are
// returned; seed failures are logged and reported in Result.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	log := p.Log
	if log == nil {
		log = logger.New("trainer")
	}
	src := p.Source
	if src == nil {
		src = GeneratorSource{Config: p.Config}
	}

	res, err := p.run(ctx, src, log)
	res.Duration = time.Since(start)
	p.record(res, err, start, log)
	return res, err
}

func (p *Pipeline) run(ctx context.Context, src Source, log logger.Logger) (Result, error) {
	var res Result
	recs, err := src.Records(ctx)
	if err != nil {
		return res, fmt.Errorf("load records: %w", err)
	}
	log.Infof("training on %d rides", len(recs))

	b, err := Train(recs, p.Config)
	if err != nil {
		return res, err
	}
	res.Bundle = b
	res.Records = b.Meta.Records
	res.ScamFraction = b.Meta.ScamFraction
	log.Infow("models trained", map[string]any{
		"run_id":        b.Meta.RunID,
		"records":       res.Records,
		"scam_fraction": res.ScamFraction,
		"clusters":      len(b.HotspotModel.Centers),
	})

	if p.Store != nil {
		if err := p.Store.Save(b); err != nil {
			return res, fmt.Errorf("save artifact: %w", err)
		}
	}

	if p.Seed != nil {
		limit := p.SeedLimit
		if limit <= 0 || limit > len(recs) {
			limit = len(recs)
		}
		n, err := p.Seed.Seed(ctx, recs[:limit])
		res.Seeded = n
		if err != nil {
			res.SeedErr = err
			log.Warnf("database seeding skipped or failed after %d rows: %v", n, err)
			monitoring.CaptureException(err, map[string]string{"component": "seed", "run_id": b.Meta.RunID})
		} else if n > 0 {
			log.Infof("seeded %d rides", n)
		}
	}
	return res, nil
}

func (p *Pipeline) record(res Result, err error, start time.Time, log logger.Logger) {
	if p.Recorder == nil {
		return
	}
	run := metrics.TrainingRun{
		Records:      res.Records,
		ScamFraction: res.ScamFraction,
		Seeded:       res.Seeded,
		Success:      err == nil,
		Duration:     res.Duration,
		Time:         start,
	}
	if res.Bundle != nil {
		run.RunID = res.Bundle.Meta.RunID
	}
	if res.SeedErr != nil {
		run.SeedError = res.SeedErr.Error()
	}
	if rerr := p.Recorder.RecordTrainingRun(run); rerr != nil {
		log.Warnf("record training run: %v", rerr)
	}
}

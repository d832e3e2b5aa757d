// Package processor orchestrates one linguistic processing run end to end:
// preflight, admission, annotation, classification, publishing.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/impresso/impresso-linguistic-processing/internal/admission"
	"github.com/impresso/impresso-linguistic-processing/internal/annotate"
	"github.com/impresso/impresso-linguistic-processing/internal/classifier"
	"github.com/impresso/impresso-linguistic-processing/internal/config"
	"github.com/impresso/impresso-linguistic-processing/internal/domain"
	"github.com/impresso/impresso-linguistic-processing/internal/logger"
	"github.com/impresso/impresso-linguistic-processing/internal/publisher"
	"github.com/impresso/impresso-linguistic-processing/internal/schema"
	"github.com/impresso/impresso-linguistic-processing/internal/source"
	"github.com/impresso/impresso-linguistic-processing/internal/stats"
	"github.com/impresso/impresso-linguistic-processing/internal/storage"
	"github.com/impresso/impresso-linguistic-processing/internal/version"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// progressInterval is how many records pass between progress log lines.
const progressInterval = 200

// Options are the per-run inputs, assembled from flags by the CLI layer.
type Options struct {
	InputPath  string
	OutputPath string
	// LIDPath points at a precomputed {id, lg} sidecar file; empty disables it.
	LIDPath string
	// Language forces one language for the whole run.
	Language string
	// Validate checks every output record against the annotation schema.
	Validate bool

	Publish publisher.Options
}

// Runner drives one run. Single-threaded by design: records are processed in
// input order, and the external annotation capability bounds throughput.
type Runner struct {
	cfg      *config.Config
	opts     Options
	store    storage.ObjectStore
	provider *annotate.Provider
	stats    *stats.Aggregator
	logger   logger.Logger
}

// New assembles a runner. store may be nil for purely local runs.
func New(cfg *config.Config, opts Options, store storage.ObjectStore, provider *annotate.Provider, log logger.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		opts:     opts,
		store:    store,
		provider: provider,
		stats:    stats.NewAggregator(),
		logger:   log,
	}
}

// Run executes the pipeline. On publisher.ErrAlreadyPublished no input was
// read; the caller maps that to the skip exit status.
func (r *Runner) Run(ctx context.Context) error {
	runID := uuid.NewString()
	ts := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	log := r.logger.With(logger.String("run_id", runID))

	log.Info("Starting linguistic processing run",
		logger.String("input", r.opts.InputPath),
		logger.String("output", r.opts.OutputPath),
		logger.String("version", version.String()))

	pub := publisher.New(r.store, withTimestamp(r.opts.Publish, ts), log)
	if err := pub.PreflightSkip(ctx); err != nil {
		return err
	}

	var validator *schema.Validator
	if r.opts.Validate {
		v, err := schema.New(r.cfg.Processing.SchemaURI)
		if err != nil {
			return err
		}
		validator = v
	}

	var lid map[string]string
	if r.opts.LIDPath != "" {
		table, err := source.ReadLangIdent(ctx, r.opts.LIDPath, r.store, log)
		if err != nil {
			return err
		}
		lid = table
		log.Info("Loaded language identification table",
			logger.String("path", r.opts.LIDPath),
			logger.Int("entries", len(table)))
	}

	reader, err := source.Open(ctx, r.opts.InputPath, r.cfg.Processing.TextProperty, r.store)
	if err != nil {
		return err
	}
	defer reader.Close()

	sink, err := publisher.NewSink(r.opts.OutputPath)
	if err != nil {
		return err
	}
	defer sink.Close()

	gate := admission.NewGate(
		r.cfg.Processing.MinDocLength,
		r.cfg.Processing.MaxDocLength,
		r.opts.Language,
		lid,
		r.provider.Supported,
		r.stats,
		log,
	)

	total := 0
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", r.opts.InputPath, err)
		}
		total++

		decision := gate.Admit(rec)
		if !decision.Admitted() {
			continue
		}

		doc, err := r.processRecord(ctx, rec, decision, ts)
		if err != nil {
			return err
		}

		line, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode output record %s: %w", doc.ID, err)
		}
		if validator != nil {
			if err := validator.ValidateLine(line); err != nil {
				return fmt.Errorf("record %s: %w", doc.ID, err)
			}
		}
		if err := sink.WriteLine(line); err != nil {
			return err
		}

		if total%progressInterval == 0 {
			log.Info("Progress",
				logger.Int("read", total),
				logger.Int("written", sink.Count()))
		}
	}

	if err := sink.Close(); err != nil {
		return err
	}

	r.checkTotals(log, total)

	if err := pub.Finalize(ctx, sink.Path()); err != nil {
		return err
	}

	r.stats.LogAll(log)
	log.Info("Run finished",
		logger.Int("read", total),
		logger.Int("written", sink.Count()))
	return nil
}

// processRecord annotates and classifies one admitted record.
func (r *Runner) processRecord(ctx context.Context, rec *domain.InputRecord, decision admission.Decision, ts string) (*domain.AnnotatedDocument, error) {
	lang := decision.Language

	sents, modelID, err := r.provider.Annotate(ctx, lang, rec.BodyText())
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}

	doc := &domain.AnnotatedDocument{
		ID:             rec.ID,
		Timestamp:      ts,
		TitleSentences: []domain.Sentence{},
		Sentences:      sents,
		ModelID:        modelID,
		LIDPath:        r.opts.LIDPath,
		Version:        version.String(),
		CharCount:      decision.TextLength,
		MinChars:       r.cfg.Processing.MinDocLength,
		MaxChars:       r.cfg.Processing.MaxDocLength,
	}

	if title := rec.TitleText(); title != "" {
		tsents, _, err := r.provider.Annotate(ctx, lang, title)
		if err != nil {
			return nil, fmt.Errorf("record %s title: %w", rec.ID, err)
		}
		doc.TitleSentences = tsents

		rel := classifier.Classify(title, rec.BodyText())
		doc.TitleStatus = &rel
		for _, f := range rel.Flags() {
			r.stats.Inc(stats.TitleStatusPrefix + f)
		}
	}

	return doc, nil
}

// checkTotals verifies that every record read was counted exactly once.
func (r *Runner) checkTotals(log logger.Logger, total int) {
	admitted := r.stats.Get(stats.ItemsAdmitted)
	rejected := r.stats.RejectedTotal()
	if admitted+rejected != uint64(total) {
		log.Error("Outcome counters do not add up to records read",
			logger.Int("read", total),
			logger.Uint64("admitted", admitted),
			logger.Uint64("rejected", rejected))
		return
	}
	log.Info("Outcome totals verified",
		logger.Int("read", total),
		logger.Uint64("admitted", admitted),
		logger.Uint64("rejected", rejected))
}

func withTimestamp(opts publisher.Options, ts string) publisher.Options {
	opts.Timestamp = ts
	return opts
}

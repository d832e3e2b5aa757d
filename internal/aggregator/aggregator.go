// Package aggregator rolls up persisted title classifications across many
// published artifacts into one statistics record per newspaper-year.
package aggregator

import (
	"bufio"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"

	"github.com/impresso/impresso-linguistic-processing/internal/domain"
	"github.com/impresso/impresso-linguistic-processing/internal/logger"
	"github.com/impresso/impresso-linguistic-processing/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxLineBytes = 16 * 1024 * 1024

// titleLongerWarnChars is the slack before a title-longer-than-body record
// is worth a warning. Small differences come from trailing punctuation.
const titleLongerWarnChars = 5

// aggRecord is the slice of a published record the aggregation needs. The
// persisted title_status is trusted as-is; text heuristics are not re-run.
type aggRecord struct {
	ID             string            `json:"ci_id"`
	CharCount      int               `json:"char_count"`
	TitleSentences []domain.Sentence `json:"tsents"`
	Sentences      []domain.Sentence `json:"sents"`
	TitleStatus    map[string]bool   `json:"title_status"`
}

// Aggregator scans published artifacts under a remote prefix and emits one
// JSON aggregate object per artifact to out.
type Aggregator struct {
	store  storage.ObjectStore
	out    io.Writer
	logger logger.Logger
}

// New creates an aggregator writing JSON lines to out.
func New(store storage.ObjectStore, out io.Writer, log logger.Logger) *Aggregator {
	return &Aggregator{store: store, out: out, logger: log}
}

// Run aggregates every .jsonl.gz / .jsonl.bz2 artifact under prefix.
// Artifacts with zero records produce no output. Per-record anomalies are
// warnings; a malformed artifact aborts the run.
func (a *Aggregator) Run(ctx context.Context, prefix storage.Location) error {
	objects, err := a.store.List(ctx, prefix.Bucket, prefix.Key)
	if err != nil {
		return fmt.Errorf("list artifacts under %s: %w", prefix.String(), err)
	}

	enc := json.NewEncoder(a.out)
	processed := 0
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".jsonl.gz") && !strings.HasSuffix(obj.Key, ".jsonl.bz2") {
			continue
		}
		aggregate, err := a.aggregateArtifact(ctx, prefix.Bucket, obj.Key)
		if err != nil {
			return err
		}
		if aggregate == nil {
			a.logger.Warn("Empty artifact, no aggregate emitted",
				logger.String("key", obj.Key))
			continue
		}
		if err := enc.Encode(map[string]any{"year": aggregate}); err != nil {
			return fmt.Errorf("write aggregate for %s: %w", obj.Key, err)
		}
		processed++
	}

	a.logger.Info("Aggregation finished",
		logger.String("prefix", prefix.String()),
		logger.Int("artifacts", processed))
	return nil
}

// aggregateArtifact reads one artifact and returns its aggregate object, or
// nil when the artifact holds no records.
func (a *Aggregator) aggregateArtifact(ctx context.Context, bucket, key string) (map[string]any, error) {
	body, err := a.store.Get(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", key, err)
	}
	defer body.Close()

	plain, closeDecomp, err := decompress(key, body)
	if err != nil {
		return nil, err
	}
	defer closeDecomp()

	counts := initCounts()
	var newspaper, year string

	scanner := bufio.NewScanner(plain)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec aggRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parse %s line %d: %w", key, lineNo, err)
		}

		parts := strings.SplitN(rec.ID, "-", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("parse %s line %d: id %q lacks newspaper-year segments", key, lineNo, rec.ID)
		}
		newspaper, year = parts[0], parts[1]

		a.tally(counts, &rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if year == "" {
		return nil, nil
	}

	result := map[string]any{
		"year":      year,
		"newspaper": newspaper,
	}
	for k, v := range counts {
		result[k] = v
	}
	return result, nil
}

// tally folds one record into counts and emits data-quality warnings.
func (a *Aggregator) tally(counts map[string]int, rec *aggRecord) {
	status := map[string]bool{
		"has_text":  rec.CharCount > 0,
		"has_title": len(rec.TitleSentences) > 0,
	}
	for k, v := range rec.TitleStatus {
		status[k] = v
	}

	if status["has_text"] && !status["has_title"] {
		a.logger.Warn("Record has body text but no title",
			logger.String("ci_id", rec.ID))
	}
	if status["has_title"] && strings.Contains(joinTokens(rec.TitleSentences[0].Tokens), "&#") {
		a.logger.Warn("Unescaped markup entities in title",
			logger.String("ci_id", rec.ID))
	}

	for k, v := range status {
		counts[fmt.Sprintf("%s=%t", k, v)]++
		if k == "title_longer" && v {
			titleLen := lastTokenEnd(rec.TitleSentences)
			bodyLen := lastTokenEnd(rec.Sentences)
			if diff := titleLen - bodyLen; diff > titleLongerWarnChars {
				a.logger.Warn("Title longer than body text",
					logger.String("ci_id", rec.ID),
					logger.Int("diff_chars", diff))
			}
		}
	}
}

// initCounts seeds every classification category at zero so aggregates for
// different artifacts always carry the same keys.
func initCounts() map[string]int {
	counts := make(map[string]int)
	for _, prop := range append([]string{"has_text", "has_title"}, domain.TitleStatusProps...) {
		counts[prop+"=true"] = 0
	}
	return counts
}

// lastTokenEnd returns the character offset one past the final token, i.e.
// the annotated text length. Empty input yields 0.
func lastTokenEnd(sents []domain.Sentence) int {
	if len(sents) == 0 {
		return 0
	}
	toks := sents[len(sents)-1].Tokens
	if len(toks) == 0 {
		return 0
	}
	last := toks[len(toks)-1]
	return last.Offset + utf8.RuneCountInString(last.Text)
}

func joinTokens(toks []domain.Token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.Text)
	}
	return b.String()
}

// decompress wraps r according to the artifact suffix.
func decompress(key string, r io.Reader) (io.Reader, func() error, error) {
	switch {
	case strings.HasSuffix(key, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("open gzip stream %s: %w", key, err)
		}
		return gz, gz.Close, nil
	case strings.HasSuffix(key, ".bz2"):
		return bzip2.NewReader(r), func() error { return nil }, nil
	default:
		return r, func() error { return nil }, nil
	}
}

// Package admission decides whether a content item is processed at all, and
// in which language.
package admission

import (
	"github.com/impresso/impresso-linguistic-processing/internal/domain"
	"github.com/impresso/impresso-linguistic-processing/internal/logger"
	"github.com/impresso/impresso-linguistic-processing/internal/stats"
)

// Outcome is the admission decision category for one record.
type Outcome string

const (
	Admitted            Outcome = "admitted"
	RejectedNoText      Outcome = "rejected-no-text"
	RejectedEmpty       Outcome = "rejected-empty"
	RejectedShort       Outcome = "rejected-short"
	RejectedLong        Outcome = "rejected-long"
	RejectedNoLang      Outcome = "rejected-no-language"
	RejectedUnsupported Outcome = "rejected-unsupported-language"
)

// statsCategory maps an outcome onto its run counter. Exactly one of these
// is incremented per record, keeping the totals invariant intact.
var statsCategory = map[Outcome]string{
	Admitted:            stats.ItemsAdmitted,
	RejectedNoText:      stats.ItemsNoText,
	RejectedEmpty:       stats.ItemsEmpty,
	RejectedShort:       stats.ItemsShort,
	RejectedLong:        stats.ItemsLong,
	RejectedNoLang:      stats.ItemsNoLang,
	RejectedUnsupported: stats.ItemsUnsupportedLang,
}

// Decision is the result of gating one record. Derived, never persisted.
type Decision struct {
	Outcome    Outcome
	Language   string
	TextLength int
}

// Admitted reports whether the record goes on to annotation.
func (d Decision) Admitted() bool { return d.Outcome == Admitted }

// Gate applies language resolution and length bounds to input records.
type Gate struct {
	minDocLength int
	maxDocLength int
	// override forces one language for the whole run; takes precedence over
	// both the LID table and the embedded language field.
	override string
	// lid maps content item ids to precomputed language codes.
	lid map[string]string
	// supported reports whether a language has an annotation capability.
	supported func(lang string) bool

	stats  *stats.Aggregator
	logger logger.Logger
}

// NewGate creates an admission gate. lid may be nil when no language
// identification file was supplied.
func NewGate(
	minDocLength, maxDocLength int,
	override string,
	lid map[string]string,
	supported func(lang string) bool,
	agg *stats.Aggregator,
	log logger.Logger,
) *Gate {
	return &Gate{
		minDocLength: minDocLength,
		maxDocLength: maxDocLength,
		override:     override,
		lid:          lid,
		supported:    supported,
		stats:        agg,
		logger:       log,
	}
}

// Admit gates one record. All rejections are non-fatal; the caller moves on
// to the next record. Every path increments exactly one outcome counter.
func (g *Gate) Admit(rec *domain.InputRecord) Decision {
	lang, ok := g.resolveLanguage(rec)
	if !ok {
		g.logger.Warn("Skipping record, language could not be resolved",
			logger.String("ci_id", rec.ID),
			logger.String("text", truncate(rec.BodyText(), 100)),
		)
		return g.decide(RejectedNoLang, "", rec.TextLength())
	}

	// A missing body property is distinct from an empty one; the record
	// never carried text at all.
	if rec.FullText == nil {
		g.logger.Error("No full text found for record", logger.String("ci_id", rec.ID))
		return g.decide(RejectedNoText, lang, rec.TextLength())
	}

	textLen := rec.TextLength()
	switch {
	case textLen == 0:
		return g.decide(RejectedEmpty, lang, textLen)
	case textLen < g.minDocLength:
		g.logger.Warn("Document too short",
			logger.String("ci_id", rec.ID),
			logger.Int("length", textLen),
			logger.Int("min_length", g.minDocLength),
		)
		return g.decide(RejectedShort, lang, textLen)
	case textLen > g.maxDocLength:
		g.logger.Warn("Document too long",
			logger.String("ci_id", rec.ID),
			logger.Int("length", textLen),
			logger.Int("max_length", g.maxDocLength),
		)
		return g.decide(RejectedLong, lang, textLen)
	}

	if g.supported != nil && !g.supported(lang) {
		g.logger.Warn("No annotation capability for language",
			logger.String("ci_id", rec.ID),
			logger.String("lg", lang),
		)
		return g.decide(RejectedUnsupported, lang, textLen)
	}

	return g.decide(Admitted, lang, textLen)
}

// resolveLanguage applies the precedence chain: run override, then the LID
// table, then the record's own language field.
func (g *Gate) resolveLanguage(rec *domain.InputRecord) (string, bool) {
	if g.override != "" {
		g.stats.Inc(stats.LangFromArg)
		return g.override, true
	}
	if lang, ok := g.lid[rec.ID]; ok && lang != "" {
		g.stats.Inc(stats.LangFromLID)
		return lang, true
	}
	if rec.Language != "" {
		g.stats.Inc(stats.LangFromDoc)
		return rec.Language, true
	}
	return "", false
}

func (g *Gate) decide(outcome Outcome, lang string, textLen int) Decision {
	g.stats.Inc(statsCategory[outcome])
	return Decision{Outcome: outcome, Language: lang, TextLength: textLen}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

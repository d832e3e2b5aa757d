// Package annotate adapts the external language-specific annotation
// capability into the pipeline's sentence/token model.
package annotate

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/impresso/impresso-linguistic-processing/internal/domain"
	"github.com/impresso/impresso-linguistic-processing/internal/logger"
)

// Capability is the opaque external annotation collaborator: a pure function
// of text to sentence structure for one fixed language. Implementations do
// not retry; annotation failures are fatal to the run.
type Capability interface {
	// Annotate tokenizes, tags, lemmatizes and entity-annotates text.
	Annotate(ctx context.Context, text string) ([]domain.Sentence, error)
	// ModelID identifies the underlying model, e.g.
	// "spacy@3.6.1:fr_core_news_md".
	ModelID() string
}

// Factory builds the capability for one language/model pair.
type Factory func(lang, model string) (Capability, error)

// Provider keeps the per-language capability cache for one run. Instances
// are built lazily, at most once per language, and reused. Not safe for
// concurrent use; one run is single-threaded by design.
type Provider struct {
	factory Factory
	// models maps language codes to model identifiers; languages absent
	// here have no annotation capability.
	models map[string]string
	cache  map[string]Capability
	// maxTextLength is a defensive invariant: the admission gate already
	// rejects longer documents, so exceeding it here is a programming error.
	maxTextLength int
	logger        logger.Logger
}

// NewProvider creates an empty capability cache.
func NewProvider(factory Factory, models map[string]string, maxTextLength int, log logger.Logger) *Provider {
	return &Provider{
		factory:       factory,
		models:        models,
		cache:         make(map[string]Capability),
		maxTextLength: maxTextLength,
		logger:        log,
	}
}

// Supported reports whether lang has a registered annotation capability.
func (p *Provider) Supported(lang string) bool {
	_, ok := p.models[lang]
	return ok
}

// Annotate runs the capability for lang over text and returns the adapted
// sentences plus the model identifier that produced them.
func (p *Provider) Annotate(ctx context.Context, lang, text string) ([]domain.Sentence, string, error) {
	if n := utf8.RuneCountInString(text); n > p.maxTextLength {
		return nil, "", fmt.Errorf("text length %d exceeds annotation maximum %d; admission gate invariant violated",
			n, p.maxTextLength)
	}

	c, err := p.get(lang)
	if err != nil {
		return nil, "", err
	}

	sents, err := c.Annotate(ctx, text)
	if err != nil {
		return nil, "", fmt.Errorf("annotate %s text: %w", lang, err)
	}

	for i := range sents {
		sents[i].Language = lang
		adaptTokens(lang, sents[i].Tokens)
	}
	return sents, c.ModelID(), nil
}

// ModelID returns the model identifier for lang, constructing the capability
// if needed.
func (p *Provider) ModelID(lang string) (string, error) {
	c, err := p.get(lang)
	if err != nil {
		return "", err
	}
	return c.ModelID(), nil
}

// get returns the cached capability for lang, constructing it on first use.
func (p *Provider) get(lang string) (Capability, error) {
	if c, ok := p.cache[lang]; ok {
		return c, nil
	}
	model, ok := p.models[lang]
	if !ok {
		return nil, fmt.Errorf("no annotation capability registered for language %q", lang)
	}

	c, err := p.factory(lang, model)
	if err != nil {
		return nil, fmt.Errorf("build annotation capability for %s: %w", lang, err)
	}
	p.cache[lang] = c
	p.logger.Info("Loaded annotation pipeline",
		logger.String("lg", lang),
		logger.String("model_id", c.ModelID()),
	)
	return c, nil
}

// adaptTokens normalizes capability output in place: Luxembourgish fine
// tags are remapped onto the coarse tag table, and lemmas equal to the
// surface form are dropped.
func adaptTokens(lang string, toks []domain.Token) {
	for i := range toks {
		if lang == "lb" {
			toks[i].Pos = coarseTag(toks[i].Pos)
		}
		if toks[i].Lemma == toks[i].Text {
			toks[i].Lemma = ""
		}
	}
}

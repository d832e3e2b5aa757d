package annotate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/impresso/impresso-linguistic-processing/internal/config"
	"github.com/impresso/impresso-linguistic-processing/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// remoteCapability calls a language-specific annotation service over HTTP.
// One instance is pinned to one language/model pair for its whole lifetime.
type remoteCapability struct {
	endpoint string
	lang     string
	model    string
	modelID  string
	client   *http.Client
	limiter  *rate.Limiter
}

// annotateRequest is the service request body.
type annotateRequest struct {
	Language string `json:"lang"`
	Model    string `json:"model"`
	Text     string `json:"text"`
}

// annotateResponse mirrors the service response. Entity spans arrive as
// separate IOB marker and type fields and are folded into the single
// IOB-TYPE tag the output schema uses.
type annotateResponse struct {
	ModelID   string `json:"model_id"`
	Sentences []struct {
		Tokens []struct {
			Text       string `json:"t"`
			Tag        string `json:"p"`
			Offset     int    `json:"o"`
			Lemma      string `json:"l"`
			EntityIOB  string `json:"iob"`
			EntityType string `json:"ent"`
		} `json:"tok"`
	} `json:"sents"`
}

// NewRemoteFactory returns a Factory producing HTTP capabilities against the
// configured annotation service. A single rate limiter is shared across all
// languages so the service sees one bounded request stream per run.
func NewRemoteFactory(cfg config.AnnotationConfig) Factory {
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	client := &http.Client{Timeout: cfg.Timeout}

	return func(lang, model string) (Capability, error) {
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("annotation endpoint is not configured")
		}
		return &remoteCapability{
			endpoint: strings.TrimSuffix(cfg.Endpoint, "/") + "/v1/annotate",
			lang:     lang,
			model:    model,
			client:   client,
			limiter:  limiter,
		}, nil
	}
}

func (c *remoteCapability) ModelID() string {
	if c.modelID != "" {
		return c.modelID
	}
	// Before the first round trip only the configured model name is known.
	return c.model
}

// Annotate sends one text to the annotation service. There is no retry or
// fallback here: an annotation failure aborts the run.
func (c *remoteCapability) Annotate(ctx context.Context, text string) ([]domain.Sentence, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(annotateRequest{Language: c.lang, Model: c.model, Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode annotation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build annotation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("annotation service call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("annotation service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode annotation response: %w", err)
	}
	if parsed.ModelID != "" {
		c.modelID = parsed.ModelID
	}

	sents := make([]domain.Sentence, 0, len(parsed.Sentences))
	for _, s := range parsed.Sentences {
		toks := make([]domain.Token, 0, len(s.Tokens))
		for _, t := range s.Tokens {
			tok := domain.Token{
				Text:   t.Text,
				Pos:    t.Tag,
				Offset: t.Offset,
				Lemma:  t.Lemma,
			}
			if t.EntityType != "" {
				tok.Entity = t.EntityIOB + "-" + t.EntityType
			}
			toks = append(toks, tok)
		}
		sents = append(sents, domain.Sentence{Tokens: toks})
	}
	return sents, nil
}

package processor

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impresso/impresso-linguistic-processing/internal/annotate"
	"github.com/impresso/impresso-linguistic-processing/internal/config"
	"github.com/impresso/impresso-linguistic-processing/internal/domain"
	"github.com/impresso/impresso-linguistic-processing/internal/logger"
	"github.com/impresso/impresso-linguistic-processing/internal/publisher"
	"github.com/impresso/impresso-linguistic-processing/internal/storage"
)

// wordSplitCapability fakes the external annotation service: whitespace
// tokens, NOUN for everything, running character offsets.
type wordSplitCapability struct {
	model string
}

func (c *wordSplitCapability) ModelID() string { return "fake:" + c.model }

func (c *wordSplitCapability) Annotate(ctx context.Context, text string) ([]domain.Sentence, error) {
	var toks []domain.Token
	offset := 0
	for _, w := range strings.Fields(text) {
		toks = append(toks, domain.Token{Text: w, Pos: "NOUN", Offset: offset})
		offset += len(w) + 1
	}
	return []domain.Sentence{{Tokens: toks}}, nil
}

func fakeFactory(lang, model string) (annotate.Capability, error) {
	return &wordSplitCapability{model: model}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Processing: config.ProcessingConfig{
			MinDocLength: 10,
			MaxDocLength: 10000,
			TextProperty: "ft",
		},
		Annotation: config.AnnotationConfig{
			Models: map[string]string{"de": "de_model", "fr": "fr_model"},
		},
	}
}

func newTestRunner(cfg *config.Config, opts Options, store storage.ObjectStore) *Runner {
	provider := annotate.NewProvider(fakeFactory, cfg.Annotation.Models, cfg.Processing.MaxDocLength, logger.Nop())
	return New(cfg, opts, store, provider, logger.Nop())
}

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func readOutputLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var lines []string
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestRun_EndToEnd(t *testing.T) {
	input := writeInput(t,
		`{"id": "gazette-1890-01-01-a-i0001", "lg": "fr", "t": "Incendie grave", "ft": "Incendie grave dans la vieille ville hier soir."}`,
		`{"id": "gazette-1890-01-01-a-i0002", "lg": "fr", "ft": "court"}`,
		`{"id": "gazette-1890-01-01-a-i0003", "lg": "it", "ft": "abbastanza lungo per essere ammesso ma non supportato"}`,
	)
	output := filepath.Join(t.TempDir(), "out.jsonl.gz")

	runner := newTestRunner(testConfig(), Options{InputPath: input, OutputPath: output}, nil)
	require.NoError(t, runner.Run(context.Background()))

	lines := readOutputLines(t, output)
	require.Len(t, lines, 1)

	var doc domain.AnnotatedDocument
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &doc))

	assert.Equal(t, "gazette-1890-01-01-a-i0001", doc.ID)
	assert.Equal(t, "fake:fr_model", doc.ModelID)
	assert.NotEmpty(t, doc.Sentences)
	assert.NotEmpty(t, doc.TitleSentences)
	assert.Equal(t, "fr", doc.Sentences[0].Language)
	require.NotNil(t, doc.TitleStatus)
	assert.True(t, doc.TitleStatus.ExactPrefix)
	assert.Equal(t, 10, doc.MinChars)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`, doc.Timestamp)
}

func TestRun_NoTitleMeansNoTitleStatus(t *testing.T) {
	input := writeInput(t,
		`{"id": "gazette-1890-01-01-a-i0001", "lg": "de", "ft": "Ein ausreichend langer Artikeltext ohne Titel."}`,
	)
	output := filepath.Join(t.TempDir(), "out.jsonl.gz")

	runner := newTestRunner(testConfig(), Options{InputPath: input, OutputPath: output}, nil)
	require.NoError(t, runner.Run(context.Background()))

	lines := readOutputLines(t, output)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "title_status")
	// tsents stays present as an empty list; consumers index it without a
	// presence check.
	assert.Contains(t, lines[0], `"tsents":[]`)
}

func TestRun_EmptyInputYieldsValidEmptyArtifact(t *testing.T) {
	input := writeInput(t, "")
	output := filepath.Join(t.TempDir(), "out.jsonl.gz")

	runner := newTestRunner(testConfig(), Options{InputPath: input, OutputPath: output}, nil)
	require.NoError(t, runner.Run(context.Background()))

	assert.Empty(t, readOutputLines(t, output))
}

func TestRun_LanguageOverride(t *testing.T) {
	input := writeInput(t,
		`{"id": "gazette-1890-01-01-a-i0001", "lg": "it", "ft": "Questo testo viene trattato come francese."}`,
	)
	output := filepath.Join(t.TempDir(), "out.jsonl.gz")

	runner := newTestRunner(testConfig(), Options{
		InputPath:  input,
		OutputPath: output,
		Language:   "fr",
	}, nil)
	require.NoError(t, runner.Run(context.Background()))

	lines := readOutputLines(t, output)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"lg":"fr"`)
}

func TestRun_MalformedInputIsFatal(t *testing.T) {
	input := writeInput(t, `{broken`)
	output := filepath.Join(t.TempDir(), "out.jsonl.gz")

	runner := newTestRunner(testConfig(), Options{InputPath: input, OutputPath: output}, nil)
	assert.Error(t, runner.Run(context.Background()))
}

func TestRun_PreflightSkipReadsNoInput(t *testing.T) {
	store := storage.NewFSStore(t.TempDir())
	dst := storage.Location{Bucket: "bucket", Key: "out/run.jsonl.gz"}
	_, err := store.Put(context.Background(), dst.Bucket, dst.Key, strings.NewReader("x"), 1)
	require.NoError(t, err)

	// The input path does not exist; the preflight skip must fire before the
	// runner ever tries to open it.
	runner := newTestRunner(testConfig(), Options{
		InputPath:  filepath.Join(t.TempDir(), "does-not-exist.jsonl"),
		OutputPath: filepath.Join(t.TempDir(), "out.jsonl.gz"),
		Publish: publisher.Options{
			Destination:  dst,
			QuitIfExists: true,
		},
	}, store)

	err = runner.Run(context.Background())
	assert.ErrorIs(t, err, publisher.ErrAlreadyPublished)
}

func TestRun_PublishesToStore(t *testing.T) {
	store := storage.NewFSStore(t.TempDir())
	dst := storage.Location{Bucket: "bucket", Key: "out/run.jsonl.gz"}
	input := writeInput(t,
		`{"id": "gazette-1890-01-01-a-i0001", "lg": "fr", "ft": "Un article assez long pour l'admission."}`,
	)
	output := filepath.Join(t.TempDir(), "out.jsonl.gz")

	runner := newTestRunner(testConfig(), Options{
		InputPath:  input,
		OutputPath: output,
		Publish:    publisher.Options{Destination: dst},
	}, store)
	require.NoError(t, runner.Run(context.Background()))

	info, err := store.Stat(context.Background(), dst.Bucket, dst.Key)
	require.NoError(t, err)
	local, err := os.Stat(output)
	require.NoError(t, err)
	assert.Equal(t, local.Size(), info.Size)
}

func TestRun_LIDTableDrivesLanguage(t *testing.T) {
	dir := t.TempDir()
	lid := filepath.Join(dir, "lid.jsonl")
	require.NoError(t, os.WriteFile(lid,
		[]byte(`{"id": "gazette-1890-01-01-a-i0001", "lg": "de"}`+"\n"), 0o644))
	input := writeInput(t,
		`{"id": "gazette-1890-01-01-a-i0001", "lg": "fr", "ft": "Dieser Text wird als deutsch behandelt."}`,
	)
	output := filepath.Join(dir, "out.jsonl.gz")

	runner := newTestRunner(testConfig(), Options{
		InputPath:  input,
		OutputPath: output,
		LIDPath:    lid,
	}, nil)
	require.NoError(t, runner.Run(context.Background()))

	lines := readOutputLines(t, output)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"lg":"de"`)
	assert.Contains(t, lines[0], `"lid_path":`)
}

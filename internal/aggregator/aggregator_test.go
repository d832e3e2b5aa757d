package aggregator

import (
	"bytes"
	"compress/gzip"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impresso/impresso-linguistic-processing/internal/logger"
	"github.com/impresso/impresso-linguistic-processing/internal/storage"
)

func putGzArtifact(t *testing.T, store storage.ObjectStore, key string, lines ...string) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	for _, l := range lines {
		_, err := gz.Write([]byte(l + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, gz.Close())
	_, err := store.Put(context.Background(), "bucket", key, &buf, int64(buf.Len()))
	require.NoError(t, err)
}

func runAggregation(t *testing.T, store storage.ObjectStore) []map[string]any {
	t.Helper()
	var out bytes.Buffer
	agg := New(store, &out, logger.Nop())
	require.NoError(t, agg.Run(context.Background(), storage.Location{Bucket: "bucket", Key: "out/"}))

	var results []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var obj map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &obj))
		results = append(results, obj)
	}
	return results
}

const recordWithTitle = `{
  "ci_id": "waeschfra-1884-05-10-a-i0005",
  "ts": "2026-01-02T23:49:10Z",
  "tsents": [{"lg": "fr", "tok": [{"t": "Incendie", "p": "NOUN", "o": 0}]}],
  "sents": [{"lg": "fr", "tok": [{"t": "Incendie", "p": "NOUN", "o": 0}, {"t": "grave", "p": "ADJ", "o": 9}]}],
  "model_id": "spacy@3.6.1:fr_core_news_md",
  "char_count": 297,
  "title_status": {"exact_prefix": true}
}`

const recordWithoutTitle = `{
  "ci_id": "waeschfra-1884-05-10-a-i0006",
  "ts": "2026-01-02T23:49:10Z",
  "sents": [{"lg": "fr", "tok": [{"t": "Texte", "p": "NOUN", "o": 0}]}],
  "model_id": "spacy@3.6.1:fr_core_news_md",
  "char_count": 120
}`

func TestRun_AggregatesOneArtifact(t *testing.T) {
	store := storage.NewFSStore(t.TempDir())
	putGzArtifact(t, store, "out/waeschfra-1884.jsonl.gz",
		compactJSON(t, recordWithTitle), compactJSON(t, recordWithoutTitle))

	results := runAggregation(t, store)
	require.Len(t, results, 1)

	inner, ok := results[0]["year"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "1884", inner["year"])
	assert.Equal(t, "waeschfra", inner["newspaper"])
	assert.Equal(t, float64(2), inner["has_text=true"])
	assert.Equal(t, float64(1), inner["has_title=true"])
	assert.Equal(t, float64(1), inner["has_title=false"])
	assert.Equal(t, float64(1), inner["exact_prefix=true"])
	// Categories that never fired are still present, initialized to zero.
	assert.Equal(t, float64(0), inner["advertisement=true"])
	assert.Equal(t, float64(0), inner["unknown=true"])
}

func TestRun_OneAggregatePerArtifact(t *testing.T) {
	store := storage.NewFSStore(t.TempDir())
	putGzArtifact(t, store, "out/a.jsonl.gz", compactJSON(t, recordWithTitle))
	putGzArtifact(t, store, "out/b.jsonl.gz", compactJSON(t, recordWithoutTitle))

	results := runAggregation(t, store)
	assert.Len(t, results, 2)
}

func TestRun_EmptyArtifactEmitsNothing(t *testing.T) {
	store := storage.NewFSStore(t.TempDir())
	putGzArtifact(t, store, "out/empty.jsonl.gz")

	results := runAggregation(t, store)
	assert.Empty(t, results)
}

func TestRun_IgnoresOtherSuffixes(t *testing.T) {
	store := storage.NewFSStore(t.TempDir())
	_, err := store.Put(context.Background(), "bucket", "out/readme.txt",
		strings.NewReader("not an artifact"), 15)
	require.NoError(t, err)

	results := runAggregation(t, store)
	assert.Empty(t, results)
}

func TestRun_MalformedRecordIsFatal(t *testing.T) {
	store := storage.NewFSStore(t.TempDir())
	putGzArtifact(t, store, "out/bad.jsonl.gz", "{not json")

	var out bytes.Buffer
	agg := New(store, &out, logger.Nop())
	err := agg.Run(context.Background(), storage.Location{Bucket: "bucket", Key: "out/"})

	assert.Error(t, err)
}

func TestRun_IDWithoutYearSegmentIsFatal(t *testing.T) {
	store := storage.NewFSStore(t.TempDir())
	putGzArtifact(t, store, "out/bad.jsonl.gz", `{"ci_id": "nohyphen", "char_count": 1}`)

	var out bytes.Buffer
	agg := New(store, &out, logger.Nop())
	err := agg.Run(context.Background(), storage.Location{Bucket: "bucket", Key: "out/"})

	assert.Error(t, err)
}

func TestLastTokenEnd(t *testing.T) {
	var rec aggRecord
	require.NoError(t, json.Unmarshal([]byte(compactJSON(t, recordWithTitle)), &rec))

	assert.Equal(t, 8, lastTokenEnd(rec.TitleSentences))
	assert.Equal(t, 14, lastTokenEnd(rec.Sentences))
	assert.Equal(t, 0, lastTokenEnd(nil))
}

func compactJSON(t *testing.T, s string) string {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

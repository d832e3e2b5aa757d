package source

import (
	"bufio"
	"context"
	"fmt"

	"github.com/impresso/impresso-linguistic-processing/internal/logger"
	"github.com/impresso/impresso-linguistic-processing/internal/storage"
)

// lidEntry is one line of a precomputed language identification file.
type lidEntry struct {
	ID       string `json:"id"`
	Language string `json:"lg"`
}

// ReadLangIdent loads a language identification sidecar into an id → language
// map. Lines without an id are logged and skipped; an empty language entry is
// kept as absent so the gate falls through to the embedded field.
func ReadLangIdent(ctx context.Context, path string, store storage.ObjectStore, log logger.Logger) (map[string]string, error) {
	raw, closers, err := openStream(ctx, path, store)
	if err != nil {
		return nil, err
	}
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}()

	result := make(map[string]string)
	scanner := bufio.NewScanner(raw)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry lidEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			log.Error("Problem parsing language identification line",
				logger.String("line", string(line)),
				logger.Error(err),
			)
			continue
		}
		if entry.ID == "" {
			log.Error("Language identification line without id",
				logger.String("line", string(line)),
			)
			continue
		}
		if entry.Language != "" {
			result[entry.ID] = entry.Language
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read language identification file %s: %w", path, err)
	}
	return result, nil
}

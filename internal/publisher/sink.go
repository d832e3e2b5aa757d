package publisher

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"

	"github.com/impresso/impresso-linguistic-processing/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sink streams annotated documents to a gzip-compressed JSONL file, one
// self-contained object per line.
type Sink struct {
	path    string
	file    *os.File
	gz      *gzip.Writer
	written int
	closed  bool
}

// NewSink creates (truncating) the local artifact at path.
func NewSink(path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file %s: %w", path, err)
	}
	return &Sink{
		path: path,
		file: f,
		gz:   gzip.NewWriter(f),
	}, nil
}

// Write appends one document as a JSON line.
func (s *Sink) Write(doc *domain.AnnotatedDocument) error {
	line, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode output record %s: %w", doc.ID, err)
	}
	return s.WriteLine(line)
}

// WriteLine appends one pre-serialized JSON line.
func (s *Sink) WriteLine(line []byte) error {
	if _, err := s.gz.Write(line); err != nil {
		return fmt.Errorf("write output record: %w", err)
	}
	if _, err := s.gz.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write output record: %w", err)
	}
	s.written++
	return nil
}

// Count returns the number of records written so far.
func (s *Sink) Count() int { return s.written }

// Path returns the local artifact path.
func (s *Sink) Path() string { return s.path }

// Close flushes and closes the artifact. Even with zero records the file
// ends up a valid (empty) gzip member, so downstream decompression tooling
// never encounters a zero-byte archive.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.gz.Close(); err != nil {
		s.file.Close()
		return fmt.Errorf("finish gzip stream %s: %w", s.path, err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close output file %s: %w", s.path, err)
	}
	return nil
}

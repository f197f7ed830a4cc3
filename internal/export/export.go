// Package export writes a finished run to the output directory: the
// standard/ tables as parquet (and optionally ';' CSV) and the docs/ quality
// and schema reports.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/lehigh-university-libraries/bookmerge/internal/models"
	"github.com/lehigh-university-libraries/bookmerge/internal/quality"
	"github.com/parquet-go/parquet-go"
)

// ErrLocked is returned when another process holds the output directory.
var ErrLocked = errors.New("output directory is locked by another process")

const lockName = ".bookmerge.lock"

// Options selects the optional formats.
type Options struct {
	CSV  bool
	YAML bool
}

// Writer writes runs under one output directory.
type Writer struct {
	dir  string
	opts Options
}

// Paths lists the files written by one call to Write.
type Paths []string

type step struct {
	path  string
	write func(string) error
}

// New creates a writer rooted at dir.
func New(dir string, opts Options) *Writer {
	return &Writer{dir: dir, opts: opts}
}

// Write persists the catalog, its detail rows and the quality report. The
// directory is held under a file lock for the duration; a concurrent run
// gets ErrLocked instead of interleaving files.
func (w *Writer) Write(catalog []models.CanonicalRecord, details []models.DetailRecord, report *quality.Report) (Paths, error) {
	standard := filepath.Join(w.dir, "standard")
	docs := filepath.Join(w.dir, "docs")
	for _, dir := range []string{standard, docs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	lock := flock.New(filepath.Join(w.dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire output lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("Failed to release output lock", "error", err)
		}
	}()

	if catalog == nil {
		catalog = []models.CanonicalRecord{}
	}
	if details == nil {
		details = []models.DetailRecord{}
	}

	steps := []step{
		{filepath.Join(standard, "dim_book.parquet"), func(p string) error { return WriteParquet(p, catalog) }},
		{filepath.Join(standard, "book_source_detail.parquet"), func(p string) error { return WriteParquet(p, details) }},
		{filepath.Join(docs, "quality_metrics.json"), func(p string) error { return SaveToJSON(p, report) }},
		{filepath.Join(docs, "schema.md"), func(p string) error { return SaveSchema(p, catalog) }},
	}
	if w.opts.CSV {
		steps = append(steps,
			step{filepath.Join(standard, "dim_book.csv"), func(p string) error { return WriteCatalogCSV(p, catalog) }},
			step{filepath.Join(standard, "book_source_detail.csv"), func(p string) error { return WriteDetailCSV(p, details) }},
		)
	}
	if w.opts.YAML {
		steps = append(steps, step{filepath.Join(docs, "quality_metrics.yaml"), func(p string) error { return SaveToYAML(p, report) }})
	}

	paths := make(Paths, 0, len(steps))
	for _, s := range steps {
		if err := s.write(s.path); err != nil {
			return paths, err
		}
		paths = append(paths, s.path)
		slog.Debug("Wrote output file", "path", s.path)
	}

	slog.Info("Run exported", "dir", w.dir, "files", len(paths), "books", len(catalog))
	return paths, nil
}

// WriteParquet writes rows to a parquet file using their struct tags.
func WriteParquet[T any](path string, rows []T) error {
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write parquet %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadParquet reads every row of a parquet file.
func ReadParquet[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

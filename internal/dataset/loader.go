// Package dataset reads and writes the landing files exchanged with the
// scraping and fetching collaborators.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
	"github.com/parquet-go/parquet-go"
	"github.com/xeipuuv/gojsonschema"
)

// arraySchema is the shape a .json landing file must have.
const arraySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {"type": "object"}
}`

// Loader reads one landing file into raw records.
type Loader struct {
	path   string
	source raw.Source
}

// NewLoader creates a loader for a landing file of the given source.
func NewLoader(path string, source raw.Source) *Loader {
	return &Loader{
		path:   path,
		source: source,
	}
}

// Load reads records by file extension: .json (array of objects), .jsonl,
// .csv (';' or ',' separated, header row) or .parquet. A file that is not a
// sequence of mappings yields a *raw.BatchIntegrityError.
func (l *Loader) Load() ([]raw.Record, error) {
	ext := strings.ToLower(filepath.Ext(l.path))

	var (
		rows []map[string]any
		err  error
	)
	switch ext {
	case ".json":
		rows, err = l.loadJSON()
	case ".jsonl", ".ndjson":
		rows, err = l.loadJSONL()
	case ".csv":
		rows, err = l.loadCSV()
	case ".parquet":
		rows, err = l.loadParquet()
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .json, .jsonl, .csv, .parquet)", ext)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded landing file", "path", l.path, "source", l.source, "records", len(rows))
	return raw.FromMaps(l.source, rows)
}

func (l *Loader) integrity(index int, format string, args ...any) error {
	return &raw.BatchIntegrityError{Source: l.source, Index: index, Reason: fmt.Sprintf(format, args...)}
}

func (l *Loader) loadJSON() ([]map[string]any, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(arraySchema),
		gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, l.integrity(-1, "not valid JSON: %v", err)
	}
	if !result.Valid() {
		desc := result.Errors()[0]
		return nil, l.integrity(-1, "%s: %s", desc.Field(), desc.Description())
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	rows := []map[string]any{}
	if err := dec.Decode(&rows); err != nil {
		return nil, l.integrity(-1, "failed to decode: %v", err)
	}
	return rows, nil
}

func (l *Loader) loadJSONL() ([]map[string]any, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	rows := []map[string]any{}
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var row map[string]any
		if err := dec.Decode(&row); err != nil || row == nil {
			return nil, l.integrity(len(rows), "line %d is not a JSON object", lineNum)
		}
		rows = append(rows, row)

		if lineNum%1000 == 0 {
			slog.Debug("Reading JSONL", "lines_read", lineNum)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}
	return rows, nil
}

func (l *Loader) loadCSV() ([]map[string]any, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffSeparator(data)
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []map[string]any{}, nil
	}
	if err != nil {
		return nil, l.integrity(-1, "unreadable header: %v", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := []map[string]any{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, l.integrity(len(rows), "malformed CSV row: %v", err)
		}
		row := make(map[string]any, len(header))
		for i, cell := range rec {
			if cell == "" {
				continue
			}
			row[header[i]] = cell
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sniffSeparator picks ';' when the header has more of them than commas.
func sniffSeparator(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

func (l *Loader) loadParquet() ([]map[string]any, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, l.integrity(-1, "not a parquet file: %v", err)
	}
	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	out := make([]map[string]any, 0, pf.NumRows())
	batch := make([]Row, 128)
	for {
		n, err := reader.Read(batch)
		for _, r := range batch[:n] {
			out = append(out, r.Map())
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return out, nil
}

// Package storage keeps the unified catalog in SQLite so successive runs can
// be queried without re-reading the parquet output.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lehigh-university-libraries/bookmerge/internal/models"
)

// Store persists canonical and detail rows.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the catalog database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY inside a run.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const upsertBook = `
INSERT INTO dim_book (
    book_id, title, subtitle, authors, publisher, isbn13, isbn10,
    pub_date_norm, language_norm, price_amount_norm, price_currency,
    categories, url, rating_value, rating_count, match_method,
    winning_source, updated_at, run_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(book_id) DO UPDATE SET
    title = excluded.title,
    subtitle = excluded.subtitle,
    authors = excluded.authors,
    publisher = excluded.publisher,
    isbn13 = excluded.isbn13,
    isbn10 = excluded.isbn10,
    pub_date_norm = excluded.pub_date_norm,
    language_norm = excluded.language_norm,
    price_amount_norm = excluded.price_amount_norm,
    price_currency = excluded.price_currency,
    categories = excluded.categories,
    url = excluded.url,
    rating_value = excluded.rating_value,
    rating_count = excluded.rating_count,
    match_method = excluded.match_method,
    winning_source = excluded.winning_source,
    updated_at = excluded.updated_at,
    run_id = excluded.run_id`

const upsertDetail = `
INSERT INTO book_source_detail (
    book_id, source, source_index, match_method,
    flag_isbn13_valid, flag_isbn10_valid, flag_date_valid, raw, run_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(book_id, source, source_index) DO UPDATE SET
    match_method = excluded.match_method,
    flag_isbn13_valid = excluded.flag_isbn13_valid,
    flag_isbn10_valid = excluded.flag_isbn10_valid,
    flag_date_valid = excluded.flag_date_valid,
    raw = excluded.raw,
    run_id = excluded.run_id`

// SaveRun upserts one run's catalog and detail rows in a single transaction.
// Saving the same run twice leaves the database unchanged.
func (s *Store) SaveRun(ctx context.Context, runID string, generatedAt time.Time, catalog []models.CanonicalRecord, details []models.DetailRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	bookStmt, err := tx.PrepareContext(ctx, upsertBook)
	if err != nil {
		return fmt.Errorf("failed to prepare book upsert: %w", err)
	}
	defer bookStmt.Close()

	for _, c := range catalog {
		authors, err := json.Marshal(nonNil(c.Authors))
		if err != nil {
			return fmt.Errorf("failed to encode authors: %w", err)
		}
		categories, err := json.Marshal(nonNil(c.Categories))
		if err != nil {
			return fmt.Errorf("failed to encode categories: %w", err)
		}
		if _, err := bookStmt.ExecContext(ctx,
			c.BookID, c.Title, nullString(c.Subtitle), string(authors), nullString(c.Publisher),
			nullString(c.ISBN13), nullString(c.ISBN10), nullString(c.PubDateNorm), nullString(c.LanguageNorm),
			nullFloat(c.PriceAmountNorm), nullString(c.PriceCurrency), string(categories), nullString(c.URL),
			nullFloat(c.RatingValue), nullInt(c.RatingCount), string(c.MatchMethod), c.WinningSource,
			c.UpdatedAt.UTC().Format(time.RFC3339Nano), runID,
		); err != nil {
			return fmt.Errorf("failed to upsert book %s: %w", c.BookID, err)
		}
	}

	detailStmt, err := tx.PrepareContext(ctx, upsertDetail)
	if err != nil {
		return fmt.Errorf("failed to prepare detail upsert: %w", err)
	}
	defer detailStmt.Close()

	for _, d := range details {
		if _, err := detailStmt.ExecContext(ctx,
			d.BookID, d.Source, d.SourceIndex, string(d.MatchMethod),
			d.ISBN13Valid, d.ISBN10Valid, d.DateValid, d.Raw, runID,
		); err != nil {
			return fmt.Errorf("failed to upsert detail %s/%d: %w", d.Source, d.SourceIndex, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, generated_at, books, details) VALUES (?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET generated_at = excluded.generated_at, books = excluded.books, details = excluded.details`,
		runID, generatedAt.UTC().Format(time.RFC3339Nano), len(catalog), len(details),
	); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	slog.Info("Catalog stored", "path", s.path, "run_id", runID, "books", len(catalog), "details", len(details))
	return nil
}

const selectBook = `
SELECT book_id, title, subtitle, authors, publisher, isbn13, isbn10,
       pub_date_norm, language_norm, price_amount_norm, price_currency,
       categories, url, rating_value, rating_count, match_method,
       winning_source, updated_at
FROM dim_book`

// Get returns one canonical record by book id.
func (s *Store) Get(ctx context.Context, bookID string) (*models.CanonicalRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, selectBook+" WHERE book_id = ?", bookID)
	rec, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// GetAll returns every stored canonical record ordered by book id.
func (s *Store) GetAll(ctx context.Context) ([]models.CanonicalRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectBook+" ORDER BY book_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var out []models.CanonicalRecord
	for rows.Next() {
		rec, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}
	return out, nil
}

// Details returns the detail rows linked to a book id.
func (s *Store) Details(ctx context.Context, bookID string) ([]models.DetailRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT book_id, source, source_index, match_method,
       flag_isbn13_valid, flag_isbn10_valid, flag_date_valid, raw
FROM book_source_detail WHERE book_id = ? ORDER BY source, source_index`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query details: %w", err)
	}
	defer rows.Close()

	var out []models.DetailRecord
	for rows.Next() {
		var (
			d      models.DetailRecord
			method string
		)
		if err := rows.Scan(&d.BookID, &d.Source, &d.SourceIndex, &method,
			&d.ISBN13Valid, &d.ISBN10Valid, &d.DateValid, &d.Raw); err != nil {
			return nil, fmt.Errorf("failed to scan detail: %w", err)
		}
		d.MatchMethod = models.MatchMethod(method)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate details: %w", err)
	}
	return out, nil
}

// Delete removes a book and its detail rows.
func (s *Store) Delete(ctx context.Context, bookID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM book_source_detail WHERE book_id = ?", bookID); err != nil {
		return false, fmt.Errorf("failed to delete details: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM dim_book WHERE book_id = ?", bookID)
	if err != nil {
		return false, fmt.Errorf("failed to delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of stored books.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM dim_book").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (*models.CanonicalRecord, error) {
	var (
		rec                                          models.CanonicalRecord
		subtitle, publisher, isbn13, isbn10, pubDate sql.NullString
		language, currency, url                      sql.NullString
		authors, categories, method, updated         string
		price, rating                                sql.NullFloat64
		ratingCount                                  sql.NullInt64
	)
	if err := row.Scan(&rec.BookID, &rec.Title, &subtitle, &authors, &publisher, &isbn13, &isbn10,
		&pubDate, &language, &price, &currency, &categories, &url, &rating, &ratingCount,
		&method, &rec.WinningSource, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}

	if err := json.Unmarshal([]byte(authors), &rec.Authors); err != nil {
		return nil, fmt.Errorf("failed to decode authors of %s: %w", rec.BookID, err)
	}
	if err := json.Unmarshal([]byte(categories), &rec.Categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories of %s: %w", rec.BookID, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at of %s: %w", rec.BookID, err)
	}

	rec.Subtitle = subtitle.String
	rec.Publisher = publisher.String
	rec.ISBN13 = isbn13.String
	rec.ISBN10 = isbn10.String
	rec.PubDateNorm = pubDate.String
	rec.LanguageNorm = language.String
	rec.PriceCurrency = currency.String
	rec.URL = url.String
	rec.MatchMethod = models.MatchMethod(method)
	rec.UpdatedAt = ts
	if price.Valid {
		rec.PriceAmountNorm = &price.Float64
	}
	if rating.Valid {
		rec.RatingValue = &rating.Float64
	}
	if ratingCount.Valid {
		rec.RatingCount = &ratingCount.Int64
	}
	return &rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

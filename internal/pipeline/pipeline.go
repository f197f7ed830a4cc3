// Package pipeline runs one integration batch: normalize both inputs, match
// primary records against the secondary index, merge, deduplicate and
// report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/bookmerge/internal/dedup"
	"github.com/lehigh-university-libraries/bookmerge/internal/identity"
	"github.com/lehigh-university-libraries/bookmerge/internal/matching"
	"github.com/lehigh-university-libraries/bookmerge/internal/merge"
	"github.com/lehigh-university-libraries/bookmerge/internal/models"
	"github.com/lehigh-university-libraries/bookmerge/internal/normalize"
	"github.com/lehigh-university-libraries/bookmerge/internal/quality"
	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
	"golang.org/x/sync/errgroup"
)

// Options configures a run. The zero value uses the default policy,
// digit-count ISBN validation and one worker per CPU.
type Options struct {
	Policy   merge.Policy
	Resolver identity.Resolver
	Workers  int
	// RunID is generated when empty.
	RunID string
	Now   func() time.Time
}

// Result is the finalized catalog for one run.
type Result struct {
	RunID   string
	Catalog []models.CanonicalRecord
	Details []models.DetailRecord
	Report  *quality.Report
}

// Run integrates primary (scraped) and secondary (API) records. Nil
// collections are treated as empty; a zero raw.Record aborts the run with a
// *raw.BatchIntegrityError.
func Run(ctx context.Context, primary, secondary []raw.Record, opts Options) (*Result, error) {
	if err := checkBatch(raw.SourceGoodreads, primary); err != nil {
		return nil, err
	}
	if err := checkBatch(raw.SourceGoogleBooks, secondary); err != nil {
		return nil, err
	}

	if opts.Policy == (merge.Policy{}) {
		opts.Policy = merge.DefaultPolicy()
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid survivorship policy: %w", err)
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	slog.Info("Starting integration run",
		"run_id", opts.RunID,
		"primary", len(primary),
		"secondary", len(secondary),
		"workers", opts.Workers)

	prim, err := NormalizeAll(ctx, primary, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize primary records: %w", err)
	}
	sec, err := NormalizeAll(ctx, secondary, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize secondary records: %w", err)
	}

	idx := matching.NewIndex(sec, opts.Resolver)
	matches, err := matching.MatchAll(ctx, prim, idx, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to match records: %w", err)
	}

	merger := merge.New(opts.Policy, opts.Resolver)
	merger.Now = opts.Now

	merged := make([]models.CanonicalRecord, 0, len(prim)+len(sec))
	details := make([]models.DetailRecord, 0, len(prim)+len(sec))
	used := make([]bool, len(sec))
	dropped := 0

	for i := range prim {
		m := matches[i]
		rec, prov := merger.Merge(&prim[i], m)
		merged = append(merged, rec)
		dropped += prov.DroppedISBNs
		details = append(details, detail(rec.BookID, &prim[i], rec.MatchMethod, opts.Resolver))
		if m.Matched {
			used[m.CandidatePos] = true
			details = append(details, detail(rec.BookID, m.Candidate, rec.MatchMethod, opts.Resolver))
		}
	}
	for i := range sec {
		if used[i] {
			continue
		}
		rec, prov := merger.Singleton(&sec[i])
		merged = append(merged, rec)
		dropped += prov.DroppedISBNs
		details = append(details, detail(rec.BookID, &sec[i], models.MatchNone, opts.Resolver))
	}
	slog.Debug("Merged records", "canonical", len(merged), "details", len(details))

	dd := dedup.Deduplicate(merged, opts.Resolver)
	for i := range details {
		if to, ok := dd.Redirects[details[i].BookID]; ok {
			details[i].BookID = to
		}
	}

	report := quality.Build(quality.Input{
		RunID:        opts.RunID,
		GeneratedAt:  opts.Now().UTC(),
		Catalog:      dd.Records,
		Merged:       merged,
		Details:      details,
		Matches:      matches,
		DroppedISBNs: dropped,
		Dedup:        dd.Stats,
	})

	slog.Info("Integration run complete",
		"run_id", opts.RunID,
		"canonical", len(dd.Records),
		"exact_collapses", dd.Stats.Exact,
		"fuzzy_collapses", dd.Stats.Fuzzy,
		"collisions", dd.Stats.Collisions)

	return &Result{
		RunID:   opts.RunID,
		Catalog: dd.Records,
		Details: details,
		Report:  report,
	}, nil
}

// NormalizeAll normalizes records in parallel, keeping input order.
func NormalizeAll(ctx context.Context, records []raw.Record, workers int) ([]models.SourceRecord, error) {
	out := make([]models.SourceRecord, len(records))
	if workers < 1 {
		workers = 1
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			out[i] = normalize.Record(raw.Wrap(records[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func checkBatch(source raw.Source, records []raw.Record) error {
	for i, r := range records {
		if r.IsZero() {
			return &raw.BatchIntegrityError{Source: source, Index: i, Reason: "record is not a mapping"}
		}
	}
	return nil
}

func detail(bookID string, rec *models.SourceRecord, method models.MatchMethod, resolver identity.Resolver) models.DetailRecord {
	return models.DetailRecord{
		BookID:      bookID,
		Source:      rec.Source,
		SourceIndex: int64(rec.SourceIndex),
		MatchMethod: method,
		ISBN13Valid: resolver.ISBN13(rec.ISBN13) != "",
		ISBN10Valid: resolver.ISBN10(rec.ISBN10) != "",
		DateValid:   rec.PubDate != "",
		Raw:         rec.RawJSON,
	}
}

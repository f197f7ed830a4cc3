// Package googlebooks looks up Goodreads books in the Google Books volumes
// API and writes the Input B landing rows.
package googlebooks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookmerge/internal/dataset"
	"github.com/lehigh-university-libraries/bookmerge/internal/normalize"
	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
	books "google.golang.org/api/books/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const publicQueryURL = "https://www.googleapis.com/books/v1/volumes?q="

// Options configures the client.
type Options struct {
	APIKey   string
	Endpoint string
	Country  string
	// Delay is the pause between two books.
	Delay      time.Duration
	HTTPClient *http.Client
}

// Client wraps the Books API volumes service.
type Client struct {
	svc     *books.Service
	country string
	delay   time.Duration
}

// New creates a client. Without an API key requests are unauthenticated,
// which the volumes endpoint allows at a lower quota.
func New(ctx context.Context, opts Options) (*Client, error) {
	var clientOpts []option.ClientOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	} else {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	svc, err := books.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create books service: %w", err)
	}
	return &Client{svc: svc, country: opts.Country, delay: opts.Delay}, nil
}

// Query is what is known about a book before the lookup.
type Query struct {
	ISBN13  string
	ISBN10  string
	Title   string
	Authors []string
}

// QueryFromRecord builds a lookup query from a Goodreads record.
func QueryFromRecord(rec raw.Record) Query {
	gr := raw.Goodreads{Rec: rec}
	return Query{
		ISBN13:  normalize.ISBN(gr.ISBN13()),
		ISBN10:  normalize.ISBN(gr.ISBN10()),
		Title:   gr.Title().Text(),
		Authors: normalize.Authors(gr.Authors()),
	}
}

// Searches returns the API queries to try in order: isbn13, isbn10, title
// with first author, title alone.
func (q Query) Searches() []string {
	var out []string
	if q.ISBN13 != "" {
		out = append(out, "isbn:"+q.ISBN13)
	}
	if q.ISBN10 != "" {
		out = append(out, "isbn:"+q.ISBN10)
	}
	title := strings.TrimSpace(strings.NewReplacer(`"`, "", "'", "").Replace(q.Title))
	if title != "" {
		if author := normalize.FirstAuthor(q.Authors); author != "" {
			out = append(out, fmt.Sprintf(`intitle:"%s" inauthor:"%s"`, title, author))
		}
		out = append(out, fmt.Sprintf(`intitle:"%s"`, title))
	}
	return out
}

// Lookup runs the search chain and returns the first volume found along
// with the query that produced it. A nil volume means no match. HTTP
// failures on one search are logged and the next search is tried.
func (c *Client) Lookup(ctx context.Context, q Query) (*books.Volume, string, error) {
	for _, search := range q.Searches() {
		call := c.svc.Volumes.List(search).MaxResults(1).Context(ctx)
		var callOpts []googleapi.CallOption
		if c.country != "" {
			callOpts = append(callOpts, googleapi.QueryParameter("country", c.country))
		}

		slog.Debug("Google Books search", "q", search)
		resp, err := call.Do(callOpts...)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, "", ctxErr
			}
			slog.Warn("Google Books search failed", "q", search, "error", err)
			continue
		}
		if len(resp.Items) > 0 && resp.Items[0] != nil {
			return resp.Items[0], publicQueryURL + url.QueryEscape(search), nil
		}
	}
	return nil, "", nil
}

// Enrich looks up every distinct (isbn13, title) Goodreads record and
// returns the landing rows, de-duplicated on (isbn13, title).
func (c *Client) Enrich(ctx context.Context, records []raw.Record) ([]dataset.Row, error) {
	type key struct{ isbn13, title string }
	seen := make(map[key]struct{}, len(records))

	var rows []dataset.Row
	looked := 0
	for _, rec := range records {
		q := QueryFromRecord(rec)
		k := key{q.ISBN13, q.Title}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}

		if looked > 0 && c.delay > 0 {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		looked++

		vol, queryURL, err := c.Lookup(ctx, q)
		if err != nil {
			return nil, err
		}
		if vol == nil {
			slog.Info("No Google Books match", "title", q.Title)
			continue
		}
		rows = append(rows, RowFromVolume(vol, queryURL))
	}

	rows = Dedupe(rows)
	slog.Info("Google Books enrichment complete", "books", looked, "rows", len(rows))
	return rows, nil
}

// RowFromVolume maps a volume to a landing row. Price is taken only from
// the retail price of a FOR_SALE volume.
func RowFromVolume(v *books.Volume, queryURL string) dataset.Row {
	row := dataset.Row{GBID: v.Id, APIQueryURL: queryURL}

	if info := v.VolumeInfo; info != nil {
		row.Title = info.Title
		row.Subtitle = info.Subtitle
		row.Authors = strings.Join(info.Authors, "; ")
		row.Publisher = info.Publisher
		row.PubDate = info.PublishedDate
		row.Language = info.Language
		row.Categories = strings.Join(info.Categories, "; ")
		row.InfoLink = info.InfoLink
		row.CanonicalLink = info.CanonicalVolumeLink
		for _, id := range info.IndustryIdentifiers {
			if id == nil {
				continue
			}
			switch id.Type {
			case "ISBN_13":
				row.ISBN13 = id.Identifier
			case "ISBN_10":
				row.ISBN10 = id.Identifier
			}
		}
	}

	if sale := v.SaleInfo; sale != nil && sale.Saleability == "FOR_SALE" && sale.RetailPrice != nil {
		row.PriceAmount = formatAmount(sale.RetailPrice.Amount)
		row.PriceCurrency = sale.RetailPrice.CurrencyCode
	}
	return row
}

// Dedupe keeps the first row for each (isbn13, title).
func Dedupe(rows []dataset.Row) []dataset.Row {
	type key struct{ isbn13, title string }
	seen := make(map[key]struct{}, len(rows))
	out := make([]dataset.Row, 0, len(rows))
	for _, r := range rows {
		k := key{r.ISBN13, r.Title}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

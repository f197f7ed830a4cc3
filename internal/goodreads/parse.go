// Package goodreads parses saved Goodreads book pages into Input A records.
// Fetching the pages is left to the caller.
package goodreads

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// BaseURL prefixes a book id to form its page URL.
const BaseURL = "https://www.goodreads.com/book/show/"

// Book is one Goodreads landing record.
type Book struct {
	ID  string `json:"id"`
	URL string `json:"url"`

	Title           string   `json:"title,omitempty"`
	Authors         []string `json:"authors"`
	AuthorPrincipal string   `json:"author_principal,omitempty"`

	RatingValue *float64 `json:"rating_value,omitempty"`
	RatingCount *int64   `json:"rating_count,omitempty"`
	ReviewCount *int64   `json:"review_count,omitempty"`

	Description string `json:"desc,omitempty"`
	PubInfo     string `json:"pub_info,omitempty"`
	Cover       string `json:"cover,omitempty"`

	Format               string `json:"format,omitempty"`
	NumPages             *int64 `json:"num_pages,omitempty"`
	PublicationTimestamp *int64 `json:"publication_timestamp,omitempty"`
	PublicationDate      string `json:"publication_date,omitempty"`
	Publisher            string `json:"publisher,omitempty"`
	ISBN                 string `json:"isbn,omitempty"`
	ISBN13               string `json:"isbn13,omitempty"`
	Language             string `json:"language,omitempty"`

	Genres            []string       `json:"genres"`
	ReviewCountByLang map[string]int `json:"review_count_by_lang"`
	IngestionDate     string         `json:"ingestion_date,omitempty"`
}

var (
	ratingCountRe = regexp.MustCompile(`"ratingCount":(\d+)`)
	reviewCountRe = regexp.MustCompile(`"reviewCount":(\d+)`)
	langCountRe   = regexp.MustCompile(`"count":(\d+),"isoLanguageCode":"([a-z]{2})"`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

type details struct {
	Format          string          `json:"format"`
	NumPages        *int64          `json:"numPages"`
	Publisher       string          `json:"publisher"`
	ISBN            string          `json:"isbn"`
	ISBN13          string          `json:"isbn13"`
	PublicationTime *int64          `json:"publicationTime"`
	Language        json.RawMessage `json:"language"`
}

// ParsePage extracts a book from the HTML of its Goodreads page. Missing
// elements leave the matching fields empty; only unparseable HTML fails.
func ParsePage(html, bookID string) (*Book, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	b := &Book{
		ID:                bookID,
		URL:               BaseURL + bookID,
		Authors:           []string{},
		Genres:            []string{},
		ReviewCountByLang: map[string]int{},
	}

	b.Title = strings.TrimSpace(doc.Find(".Text.Text__title1").First().Text())

	seen := make(map[string]struct{})
	doc.Find(".ContributorLink__name").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(spaceRe.ReplaceAllString(s.Text(), " "))
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		b.Authors = append(b.Authors, name)
	})
	if len(b.Authors) > 0 {
		b.AuthorPrincipal = b.Authors[0]
	}

	if text := strings.TrimSpace(doc.Find(".RatingStatistics__rating").First().Text()); text != "" {
		if v, err := strconv.ParseFloat(text, 64); err == nil {
			b.RatingValue = &v
		}
	}

	b.Description = joinedText(doc.Find(".DetailsLayoutRightParagraph__widthConstrained").First())
	b.PubInfo = joinedText(doc.Find(`p[data-testid="publicationInfo"]`).First())
	b.Cover, _ = doc.Find(".ResponsiveImage").First().Attr("src")

	b.RatingCount = firstInt(ratingCountRe, html)
	b.ReviewCount = firstInt(reviewCountRe, html)
	for _, m := range langCountRe.FindAllStringSubmatch(html, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		b.ReviewCountByLang[m[2]] += n
	}

	b.Genres = genres(html)
	applyDetails(b, html)
	return b, nil
}

// ParseFile parses a saved page. The book id is the file name without its
// extension.
func ParseFile(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	b, err := ParsePage(string(data), id)
	if err != nil {
		return nil, err
	}
	b.IngestionDate = time.Now().Format("2006-01-02 15:04:05")
	return b, nil
}

// ParseDir parses every .html file in dir, in file name order. Pages that
// fail to parse are logged and skipped.
func ParseDir(dir string) ([]*Book, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	sort.Strings(matches)

	out := make([]*Book, 0, len(matches))
	for _, path := range matches {
		b, err := ParseFile(path)
		if err != nil {
			slog.Warn("Skipping unparseable page", "path", path, "error", err)
			continue
		}
		out = append(out, b)
	}
	slog.Info("Parsed Goodreads pages", "dir", dir, "books", len(out))
	return out, nil
}

func joinedText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	var parts []string
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if t := strings.TrimSpace(c.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return spaceRe.ReplaceAllString(strings.Join(parts, " "), " ")
}

func firstInt(re *regexp.Regexp, html string) *int64 {
	m := re.FindStringSubmatch(html)
	if m == nil {
		return nil
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// decodeAfter decodes the JSON value that follows the first occurrence of
// key in the page's embedded state.
func decodeAfter(html, key string, v any) bool {
	i := strings.Index(html, key)
	if i < 0 {
		return false
	}
	rest := strings.TrimLeft(html[i+len(key):], " \t\r\n:")
	return json.NewDecoder(strings.NewReader(rest)).Decode(v) == nil
}

func genres(html string) []string {
	var raw []struct {
		Genre struct {
			Name string `json:"name"`
		} `json:"genre"`
	}
	if !decodeAfter(html, `"bookGenres"`, &raw) {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, g := range raw {
		if g.Genre.Name != "" {
			out = append(out, g.Genre.Name)
		}
	}
	return out
}

func applyDetails(b *Book, html string) {
	var d details
	if !decodeAfter(html, `"details"`, &d) {
		return
	}
	b.Format = d.Format
	b.NumPages = d.NumPages
	b.Publisher = d.Publisher
	b.ISBN = d.ISBN
	b.ISBN13 = d.ISBN13
	b.PublicationTimestamp = d.PublicationTime
	if d.PublicationTime != nil && *d.PublicationTime != 0 {
		b.PublicationDate = time.UnixMilli(*d.PublicationTime).UTC().Format("2006-01-02")
	}

	var lang struct {
		Name string `json:"name"`
	}
	if len(d.Language) > 0 && json.Unmarshal(d.Language, &lang) == nil {
		b.Language = strings.ToLower(strings.TrimSpace(lang.Name))
	}
}

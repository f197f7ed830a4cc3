package quality

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Render formats the report as a terminal table. Plain output uses ASCII
// borders for logs and pipes.
func (r *Report) Render(plain bool) string {
	tw := table.NewWriter()
	if plain {
		tw.SetStyle(table.StyleDefault)
	} else {
		tw.SetStyle(table.StyleRounded)
	}
	tw.SetTitle("BOOKMERGE QUALITY REPORT")
	tw.AppendHeader(table.Row{"Metric", "Value"})

	tw.AppendRow(table.Row{"Run ID", r.RunID})
	tw.AppendRow(table.Row{"Generated", r.GeneratedAt.Format("2006-01-02 15:04:05")})
	tw.AppendSeparator()

	for _, k := range sortedKeys(r.RecordsBySource) {
		tw.AppendRow(table.Row{"Records from " + k, r.RecordsBySource[k]})
	}
	tw.AppendRow(table.Row{"Canonical records", r.CanonicalRecords})
	for _, k := range sortedKeys(r.ByWinningSource) {
		tw.AppendRow(table.Row{"Won by " + k, r.ByWinningSource[k]})
	}
	tw.AppendSeparator()

	for _, k := range sortedKeys(r.MatchMethods) {
		tw.AppendRow(table.Row{"Matched by " + k, r.MatchMethods[k]})
	}
	tw.AppendRow(table.Row{"Ambiguous matches", r.AmbiguousMatches})
	tw.AppendRow(table.Row{"Invalid ISBNs dropped", r.DroppedISBNs})
	tw.AppendRow(table.Row{"Duplicate book_ids before dedup", r.DuplicateIDs})
	tw.AppendRow(table.Row{"Exact collapses", r.Dedup.Exact})
	tw.AppendRow(table.Row{"Fuzzy collapses", r.Dedup.Fuzzy})
	tw.AppendRow(table.Row{"Identity collisions", r.Dedup.Collisions})
	tw.AppendRow(table.Row{"Duplicate isbn13 in catalog", r.DuplicateISBN13})
	tw.AppendSeparator()

	tw.AppendRow(table.Row{"Valid isbn13", fmt.Sprintf("%.2f%%", r.PctValidISBN13)})
	tw.AppendRow(table.Row{"Resolved pub date", fmt.Sprintf("%.2f%%", r.PctResolvedDate)})
	for _, f := range nullableFields {
		tw.AppendRow(table.Row{"Null rate " + f.name, strconv.FormatFloat(r.NullRates[f.name], 'f', 4, 64)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

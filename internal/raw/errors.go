package raw

import "fmt"

// BatchIntegrityError reports an input collection that is not a sequence of
// mappings. No partial output can be produced from such a batch.
type BatchIntegrityError struct {
	Source Source
	Index  int // -1 when the whole collection is at fault
	Reason string
}

func (e *BatchIntegrityError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("batch integrity: %s input: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("batch integrity: %s input record %d: %s", e.Source, e.Index, e.Reason)
}

// FromMaps converts decoded mappings into records, rejecting nil entries.
func FromMaps(source Source, rows []map[string]any) ([]Record, error) {
	if rows == nil {
		return nil, &BatchIntegrityError{Source: source, Index: -1, Reason: "collection is nil"}
	}
	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			return nil, &BatchIntegrityError{Source: source, Index: i, Reason: "record is not a mapping"}
		}
		out = append(out, NewRecord(source, i, row))
	}
	return out, nil
}

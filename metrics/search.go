package metrics

import "strings"

// Search retains the records where any field's string representation
// contains term, case-insensitively, preserving the input order. An empty
// term matches everything. Search is total: it never fails on odd field
// types.
func Search(records []Record, term string) []Record {
	if term == "" {
		return records
	}
	lower := strings.ToLower(term)

	out := make([]Record, 0, len(records))
	for _, rec := range records {
		for field := range rec {
			if strings.Contains(strings.ToLower(rec.Field(field)), lower) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

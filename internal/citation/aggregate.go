package citation

import "time"

// Result holds the two summary counts computed for one cutoff date.
type Result struct {
	NumOriginalPubs int `json:"num_original_pubs"`
	NumCitingPubs   int `json:"num_citing_pubs"`
}

// Aggregate computes, for a cutoff date, how many tracked publications
// have at least one citation dated on or before the cutoff, and how
// many distinct citing DOIs exist across all tracked publications on or
// before the cutoff.
//
// Citations whose date does not normalize are skipped. Citations
// without a DOI can still qualify their publication but are excluded
// from the distinct citing count, since they cannot be deduplicated
// against appearances under other tracked publications. Every citation
// of every publication is considered.
//
// Aggregate is pure: it reads the mapping and mutates nothing, so it
// may be called repeatedly with different cutoffs over one snapshot.
func Aggregate(citationsByPub map[string][]Record, cutoff time.Time) Result {
	qualifying := 0
	citingDOIs := make(map[string]bool)

	for _, citations := range citationsByPub {
		qualifies := false
		for _, rec := range citations {
			date, ok := NormalizeDate(rec.PublicationDate)
			if !ok || date.After(cutoff) {
				continue
			}
			qualifies = true
			if doi := NormalizeDOI(rec.DOI); doi != "" {
				citingDOIs[doi] = true
			}
		}
		if qualifies {
			qualifying++
		}
	}

	return Result{
		NumOriginalPubs: qualifying,
		NumCitingPubs:   len(citingDOIs),
	}
}

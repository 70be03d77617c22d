package citation

import "time"

// titleEntry tracks the current winner for a title key along with its
// normalized date, so the earliest dated record can be selected.
type titleEntry struct {
	rec     Record
	date    time.Time
	hasDate bool
}

// Merge deduplicates the concatenated citation records returned by all
// providers for one tracked publication, producing one record per
// distinct citing work.
//
// Records with a DOI are keyed by normalized DOI; an OpenAlex record is
// authoritative for its key (the first one seen, if several), otherwise
// the first record seen for the key stands. DOI-less records are keyed
// by title prefix and the earliest dated record wins; records whose
// date does not normalize are treated as dateless. Records with neither
// DOI nor title are dropped. A title-keyed record is folded out when a
// DOI-keyed record with the same title prefix is already in the output,
// so one work never appears under two identities.
//
// Output order is deterministic: DOI-keyed records in first-seen key
// order, then surviving title-keyed records in first-seen key order.
func Merge(records []Record) []Record {
	var (
		doiOrder   []string
		doiBest    = make(map[string]Record)
		titleOrder []string
		titleBest  = make(map[string]titleEntry)
	)

	for _, rec := range records {
		if key := NormalizeDOI(rec.DOI); key != "" {
			cur, seen := doiBest[key]
			if !seen {
				doiOrder = append(doiOrder, key)
				doiBest[key] = rec
				continue
			}
			if cur.Source != SourceOpenAlex && rec.Source == SourceOpenAlex {
				doiBest[key] = rec
			}
			continue
		}

		key := TitleKey(rec.Title)
		if key == "" {
			continue
		}
		date, hasDate := NormalizeDate(rec.PublicationDate)
		cur, seen := titleBest[key]
		if !seen {
			titleOrder = append(titleOrder, key)
			titleBest[key] = titleEntry{rec: rec, date: date, hasDate: hasDate}
			continue
		}
		if hasDate && (!cur.hasDate || date.Before(cur.date)) {
			titleBest[key] = titleEntry{rec: rec, date: date, hasDate: true}
		}
	}

	merged := make([]Record, 0, len(doiOrder)+len(titleOrder))
	claimedTitles := make(map[string]bool, len(doiOrder))
	for _, key := range doiOrder {
		rec := doiBest[key]
		merged = append(merged, rec)
		if tk := TitleKey(rec.Title); tk != "" {
			claimedTitles[tk] = true
		}
	}
	for _, key := range titleOrder {
		if claimedTitles[key] {
			continue
		}
		merged = append(merged, titleBest[key].rec)
	}
	return merged
}

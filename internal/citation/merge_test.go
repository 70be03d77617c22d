package citation

import (
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestMerge_SourcePriority(t *testing.T) {
	openalex := Record{Title: "X", DOI: "10.1/x", PublicationDate: "2022-01-01", Source: SourceOpenAlex}
	s2 := Record{Title: "X", DOI: "10.1/x", PublicationDate: "2022-06-01", Source: SourceSemanticScholar}

	tests := []struct {
		name    string
		records []Record
	}{
		{name: "openalex first", records: []Record{openalex, s2}},
		{name: "semanticscholar first", records: []Record{s2, openalex}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := Merge(tt.records)
			if len(merged) != 1 {
				t.Fatalf("Merge() returned %d records, want 1", len(merged))
			}
			if merged[0].Source != SourceOpenAlex {
				t.Errorf("merged source = %q, want %q", merged[0].Source, SourceOpenAlex)
			}
			if merged[0].PublicationDate != "2022-01-01" {
				t.Errorf("merged date = %q, want openalex date %q", merged[0].PublicationDate, "2022-01-01")
			}
		})
	}
}

func TestMerge_NormalizedDOIVariantsCollapse(t *testing.T) {
	records := []Record{
		{Title: "A", DOI: "10.1038/NATURE12373", Source: SourceSemanticScholar},
		{Title: "A", DOI: " https://doi.org/10.1038/nature12373 ", Source: SourceSemanticScholar},
		{Title: "A", DOI: "doi:10.1038/nature12373", Source: SourceSemanticScholar},
	}

	merged := Merge(records)
	if len(merged) != 1 {
		t.Fatalf("Merge() returned %d records, want 1", len(merged))
	}
	if merged[0].DOI != "10.1038/NATURE12373" {
		t.Errorf("merged DOI = %q, want first-seen form %q", merged[0].DOI, "10.1038/NATURE12373")
	}
}

func TestMerge_ConflictingOpenAlexRecords(t *testing.T) {
	records := []Record{
		{Title: "first", DOI: "10.1/x", PublicationDate: "2020-01-01", Source: SourceOpenAlex},
		{Title: "second", DOI: "10.1/x", PublicationDate: "2021-01-01", Source: SourceOpenAlex},
	}

	merged := Merge(records)
	if len(merged) != 1 {
		t.Fatalf("Merge() returned %d records, want 1", len(merged))
	}
	if merged[0].Title != "first" {
		t.Errorf("merged title = %q, want first encountered to win", merged[0].Title)
	}
}

func TestMerge_TitleKeyedEarliestDateWins(t *testing.T) {
	early := Record{Title: "Foo Bar Study", PublicationDate: "2020-05-01", Source: SourceSemanticScholar}
	late := Record{Title: "Foo Bar Study", PublicationDate: "2023-05-01", Source: SourceOpenAlex}

	tests := []struct {
		name    string
		records []Record
	}{
		{name: "early first", records: []Record{early, late}},
		{name: "late first", records: []Record{late, early}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := Merge(tt.records)
			if len(merged) != 1 {
				t.Fatalf("Merge() returned %d records, want 1", len(merged))
			}
			if merged[0].PublicationDate != "2020-05-01" {
				t.Errorf("merged date = %q, want earliest %q", merged[0].PublicationDate, "2020-05-01")
			}
		})
	}
}

func TestMerge_TitleKeyedDatelessHolder(t *testing.T) {
	t.Run("dated record replaces dateless holder", func(t *testing.T) {
		merged := Merge([]Record{
			{Title: "Foo Bar Study", Source: SourceOpenAlex},
			{Title: "Foo Bar Study", PublicationDate: "2022-01-01", Source: SourceSemanticScholar},
		})
		if len(merged) != 1 {
			t.Fatalf("Merge() returned %d records, want 1", len(merged))
		}
		if merged[0].PublicationDate != "2022-01-01" {
			t.Errorf("merged date = %q, want %q", merged[0].PublicationDate, "2022-01-01")
		}
	})

	t.Run("unparseable date counts as dateless", func(t *testing.T) {
		merged := Merge([]Record{
			{Title: "Foo Bar Study", PublicationDate: "2022-06", Source: SourceOpenAlex},
			{Title: "Foo Bar Study", PublicationDate: "2023-01-01", Source: SourceSemanticScholar},
		})
		if len(merged) != 1 {
			t.Fatalf("Merge() returned %d records, want 1", len(merged))
		}
		if merged[0].PublicationDate != "2023-01-01" {
			t.Errorf("merged date = %q, want dated record to win over unparseable", merged[0].PublicationDate)
		}
	})

	t.Run("only dateless records keeps first seen", func(t *testing.T) {
		merged := Merge([]Record{
			{Title: "Foo Bar Study", Source: SourceOpenAlex},
			{Title: "Foo Bar Study", Source: SourceSemanticScholar},
		})
		if len(merged) != 1 {
			t.Fatalf("Merge() returned %d records, want 1", len(merged))
		}
		if merged[0].Source != SourceOpenAlex {
			t.Errorf("merged source = %q, want first seen", merged[0].Source)
		}
	})
}

func TestMerge_TitlePrefixDedup(t *testing.T) {
	prefix := strings.Repeat("x", 50)
	records := []Record{
		{Title: prefix + " extended edition", PublicationDate: "2021-01-01", Source: SourceOpenAlex},
		{Title: prefix + " director's cut", PublicationDate: "2022-01-01", Source: SourceSemanticScholar},
	}

	merged := Merge(records)
	if len(merged) != 1 {
		t.Fatalf("Merge() returned %d records, want 1: suffixes beyond 50 chars must not split the key", len(merged))
	}
	if merged[0].PublicationDate != "2021-01-01" {
		t.Errorf("merged date = %q, want earlier record", merged[0].PublicationDate)
	}
}

func TestMerge_TitleRecordFoldedIntoDOIRecord(t *testing.T) {
	records := []Record{
		{Title: "Foo Bar Study", DOI: "10.1/foo", PublicationDate: "2021-01-01", Source: SourceOpenAlex},
		{Title: "Foo Bar Study", PublicationDate: "2020-01-01", Source: SourceSemanticScholar},
	}

	merged := Merge(records)
	if len(merged) != 1 {
		t.Fatalf("Merge() returned %d records, want 1: title duplicate of a DOI record must fold out", len(merged))
	}
	if merged[0].DOI != "10.1/foo" {
		t.Errorf("surviving record DOI = %q, want the DOI-keyed record", merged[0].DOI)
	}
}

func TestMerge_TitleOnlyPreservedWithoutCollision(t *testing.T) {
	records := []Record{
		{Title: "Foo Bar Study", Source: SourceOpenAlex},
	}

	merged := Merge(records)
	if len(merged) != 1 {
		t.Fatalf("Merge() returned %d records, want 1", len(merged))
	}
	if merged[0].Title != "Foo Bar Study" {
		t.Errorf("merged title = %q, want title-only citation preserved", merged[0].Title)
	}
}

func TestMerge_DropsRecordsWithoutIdentity(t *testing.T) {
	records := []Record{
		{Title: "", DOI: "", PublicationDate: "2022-01-01", Source: SourceOpenAlex},
		{Title: "   ", DOI: "", Source: SourceSemanticScholar},
		{Title: "Kept", DOI: "10.1/kept", Source: SourceOpenAlex},
	}

	merged := Merge(records)
	if len(merged) != 1 {
		t.Fatalf("Merge() returned %d records, want 1", len(merged))
	}
	if merged[0].Title != "Kept" {
		t.Errorf("surviving record = %q, want %q", merged[0].Title, "Kept")
	}
}

func TestMerge_EmptyInput(t *testing.T) {
	if got := Merge(nil); len(got) != 0 {
		t.Errorf("Merge(nil) returned %d records, want 0", len(got))
	}
}

func TestMerge_ContentOrderIndependent(t *testing.T) {
	forward := []Record{
		{Title: "X", DOI: "10.1/x", PublicationDate: "2022-01-01", Source: SourceOpenAlex},
		{Title: "Y", DOI: "10.1/y", PublicationDate: "2023-01-01", Source: SourceSemanticScholar},
		{Title: "Foo Bar Study", PublicationDate: "2020-01-01", Source: SourceSemanticScholar},
		{Title: "X", DOI: "10.1/x", PublicationDate: "2022-06-01", Source: SourceSemanticScholar},
	}
	reversed := make([]Record, len(forward))
	for i, rec := range forward {
		reversed[len(forward)-1-i] = rec
	}

	a := Merge(forward)
	b := Merge(reversed)

	sortRecords := func(recs []Record) {
		sort.Slice(recs, func(i, j int) bool { return recs[i].Title < recs[j].Title })
	}
	sortRecords(a)
	sortRecords(b)

	if !reflect.DeepEqual(a, b) {
		t.Errorf("merged content differs by input order:\n forward: %+v\n reversed: %+v", a, b)
	}
}

func TestMerge_Idempotence(t *testing.T) {
	records := []Record{
		{Title: "X", DOI: "10.1/x", PublicationDate: "2022-01-01", Source: SourceOpenAlex},
		{Title: "X", DOI: "10.1/x", PublicationDate: "2022-06-01", Source: SourceSemanticScholar},
		{Title: "Foo Bar Study", PublicationDate: "2020-01-01", Source: SourceSemanticScholar},
	}

	once := Merge(records)
	twice := Merge(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Merge is not idempotent:\n once: %+v\n twice: %+v", once, twice)
	}
}

package citation

import (
	"testing"
	"time"
)

func mustCutoff(t *testing.T, s string) time.Time {
	t.Helper()
	cutoff, err := ParseCutoff(s)
	if err != nil {
		t.Fatalf("ParseCutoff(%q) error = %v", s, err)
	}
	return cutoff
}

func TestAggregate_Scenario(t *testing.T) {
	byPub := map[string][]Record{
		"10.1/a": {
			{Title: "X", DOI: "10.1/X", PublicationDate: "2022-01-01", Source: SourceOpenAlex},
			{Title: "Y", DOI: "10.1/Y", PublicationDate: "2023-01-01", Source: SourceSemanticScholar},
		},
	}

	tests := []struct {
		cutoff string
		want   Result
	}{
		{cutoff: "2022-12-31", want: Result{NumOriginalPubs: 1, NumCitingPubs: 1}},
		{cutoff: "2023-06-01", want: Result{NumOriginalPubs: 1, NumCitingPubs: 2}},
		{cutoff: "2021-12-31", want: Result{NumOriginalPubs: 0, NumCitingPubs: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.cutoff, func(t *testing.T) {
			got := Aggregate(byPub, mustCutoff(t, tt.cutoff))
			if got != tt.want {
				t.Errorf("Aggregate(%s) = %+v, want %+v", tt.cutoff, got, tt.want)
			}
		})
	}
}

func TestAggregate_CutoffDateInclusive(t *testing.T) {
	byPub := map[string][]Record{
		"10.1/a": {
			{Title: "X", DOI: "10.1/x", PublicationDate: "2022-06-15", Source: SourceOpenAlex},
		},
	}

	got := Aggregate(byPub, mustCutoff(t, "2022-06-15"))
	if got.NumOriginalPubs != 1 || got.NumCitingPubs != 1 {
		t.Errorf("Aggregate(on citation date) = %+v, want citation on the cutoff to count", got)
	}
}

func TestAggregate_YearNormalization(t *testing.T) {
	bareYear := map[string][]Record{
		"10.1/a": {{Title: "X", DOI: "10.1/x", PublicationDate: "2021", Source: SourceSemanticScholar}},
	}
	fullDate := map[string][]Record{
		"10.1/a": {{Title: "X", DOI: "10.1/x", PublicationDate: "2021-01-01", Source: SourceOpenAlex}},
	}

	for _, cutoff := range []string{"2020-12-31", "2021-01-01", "2021-06-01"} {
		a := Aggregate(bareYear, mustCutoff(t, cutoff))
		b := Aggregate(fullDate, mustCutoff(t, cutoff))
		if a != b {
			t.Errorf("cutoff %s: bare year %+v != full date %+v", cutoff, a, b)
		}
	}
}

func TestAggregate_YearMonthExcluded(t *testing.T) {
	byPub := map[string][]Record{
		"10.1/a": {
			{Title: "X", DOI: "10.1/x", PublicationDate: "2021-06", Source: SourceOpenAlex},
		},
	}

	got := Aggregate(byPub, mustCutoff(t, "2030-01-01"))
	if got.NumOriginalPubs != 0 || got.NumCitingPubs != 0 {
		t.Errorf("Aggregate() = %+v, want YYYY-MM citations excluded entirely", got)
	}
}

func TestAggregate_DOIlessCitationQualifiesButIsNotCounted(t *testing.T) {
	byPub := map[string][]Record{
		"some title": {
			{Title: "Foo Bar Study", PublicationDate: "2020-01-01", Source: SourceOpenAlex},
		},
	}

	got := Aggregate(byPub, mustCutoff(t, "2024-01-01"))
	if got.NumOriginalPubs != 1 {
		t.Errorf("NumOriginalPubs = %d, want 1 (DOI-less citation still qualifies its publication)", got.NumOriginalPubs)
	}
	if got.NumCitingPubs != 0 {
		t.Errorf("NumCitingPubs = %d, want 0 (DOI-less citations are not counted)", got.NumCitingPubs)
	}
}

func TestAggregate_SharedCitingDOICountedOnce(t *testing.T) {
	byPub := map[string][]Record{
		"10.1/a": {
			{Title: "X", DOI: "https://doi.org/10.1/X", PublicationDate: "2022-01-01", Source: SourceOpenAlex},
		},
		"10.1/b": {
			{Title: "X", DOI: "10.1/x", PublicationDate: "2022-01-01", Source: SourceSemanticScholar},
		},
	}

	got := Aggregate(byPub, mustCutoff(t, "2023-01-01"))
	if got.NumOriginalPubs != 2 {
		t.Errorf("NumOriginalPubs = %d, want 2", got.NumOriginalPubs)
	}
	if got.NumCitingPubs != 1 {
		t.Errorf("NumCitingPubs = %d, want 1 (same work cited by both publications)", got.NumCitingPubs)
	}
}

func TestAggregate_AllCitationsConsidered(t *testing.T) {
	// Both citations of the one publication qualify; the count must not
	// stop at the first.
	byPub := map[string][]Record{
		"10.1/a": {
			{Title: "X", DOI: "10.1/x", PublicationDate: "2020-01-01", Source: SourceOpenAlex},
			{Title: "Y", DOI: "10.1/y", PublicationDate: "2020-02-01", Source: SourceOpenAlex},
			{Title: "Z", DOI: "10.1/z", PublicationDate: "2020-03-01", Source: SourceSemanticScholar},
		},
	}

	got := Aggregate(byPub, mustCutoff(t, "2021-01-01"))
	if got.NumCitingPubs != 3 {
		t.Errorf("NumCitingPubs = %d, want 3 (every qualifying citation counts)", got.NumCitingPubs)
	}
}

func TestAggregate_EmptyCitationSetNeverQualifies(t *testing.T) {
	byPub := map[string][]Record{
		"10.1/a": {},
		"10.1/b": nil,
	}

	got := Aggregate(byPub, mustCutoff(t, "2999-12-31"))
	if got.NumOriginalPubs != 0 || got.NumCitingPubs != 0 {
		t.Errorf("Aggregate() = %+v, want zero for publications with no citations", got)
	}
}

func TestAggregate_Monotonicity(t *testing.T) {
	byPub := map[string][]Record{
		"10.1/a": {
			{Title: "X", DOI: "10.1/x", PublicationDate: "2020-06-01", Source: SourceOpenAlex},
			{Title: "Y", DOI: "10.1/y", PublicationDate: "2022-06-01", Source: SourceSemanticScholar},
		},
		"10.1/b": {
			{Title: "Z", DOI: "10.1/z", PublicationDate: "2021-06-01", Source: SourceOpenAlex},
			{Title: "W", PublicationDate: "2019-06-01", Source: SourceSemanticScholar},
		},
		"10.1/c": {
			{Title: "V", DOI: "10.1/v", PublicationDate: "2023", Source: SourceSemanticScholar},
		},
	}

	cutoffs := []string{"2019-01-01", "2019-12-31", "2020-12-31", "2021-12-31", "2022-12-31", "2023-12-31"}
	var prev Result
	for i, cutoff := range cutoffs {
		got := Aggregate(byPub, mustCutoff(t, cutoff))
		if i > 0 {
			if got.NumOriginalPubs < prev.NumOriginalPubs {
				t.Errorf("NumOriginalPubs decreased from %d to %d at cutoff %s", prev.NumOriginalPubs, got.NumOriginalPubs, cutoff)
			}
			if got.NumCitingPubs < prev.NumCitingPubs {
				t.Errorf("NumCitingPubs decreased from %d to %d at cutoff %s", prev.NumCitingPubs, got.NumCitingPubs, cutoff)
			}
		}
		prev = got
	}

	final := Aggregate(byPub, mustCutoff(t, "2023-12-31"))
	if want := (Result{NumOriginalPubs: 3, NumCitingPubs: 4}); final != want {
		t.Errorf("Aggregate(2023-12-31) = %+v, want %+v", final, want)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	byPub := map[string][]Record{
		"10.1/a": {
			{Title: "X", DOI: "10.1/x", PublicationDate: "2020-06-01", Source: SourceOpenAlex},
		},
	}
	cutoff := mustCutoff(t, "2021-01-01")

	first := Aggregate(byPub, cutoff)
	for i := 0; i < 5; i++ {
		if got := Aggregate(byPub, cutoff); got != first {
			t.Fatalf("Aggregate() run %d = %+v, differs from first run %+v", i, got, first)
		}
	}
}

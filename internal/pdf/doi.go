// Package pdf pulls publication identifiers out of article PDFs.
package pdf

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoDOI is returned when no DOI pattern appears in the scanned
// pages.
var ErrNoDOI = errors.New("no DOI found")

// doiSearchPages bounds the scan; the DOI is almost always on the
// first page.
const doiSearchPages = 3

var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// ExtractDOI scans the first pages of the PDF at path for a DOI.
func ExtractDOI(path string) (string, error) {
	text, err := firstPagesText(path, doiSearchPages)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	doi := findDOI(text)
	if doi == "" {
		return "", fmt.Errorf("%w in %s", ErrNoDOI, path)
	}
	return doi, nil
}

// ExtractTitle guesses the article title: the first substantial line of
// the first page that does not look like a running header.
func ExtractTitle(path string) (string, error) {
	text, err := firstPagesText(path, 1)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !looksLikeHeader(line) {
			return line, nil
		}
	}
	return "", nil
}

func firstPagesText(path string, maxPages int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var b strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// findDOI returns the first plausible DOI in the text, with trailing
// punctuation stripped.
func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if plausibleDOI(match) {
			return match
		}
	}
	return ""
}

func plausibleDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slash := strings.Index(doi, "/")
	return slash > 0 && slash < len(doi)-1
}

// looksLikeHeader flags running headers and boilerplate lines that
// should never be mistaken for a title.
func looksLikeHeader(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "journal"):
		return true
	case strings.Contains(lower, "volume") && strings.Contains(lower, "issue"):
		return true
	case strings.Contains(lower, "copyright"):
		return true
	case strings.Contains(lower, "downloaded from"):
		return true
	}
	return false
}

package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ReferenceSelectors are elements known to hold the confirmation number.
var ReferenceSelectors = []string{
	"#ContentPlaceHolder1_lblRefNo",
	"[id$='lblRefNo']",
	"[id$='lblReferenceNo']",
	"[id*='RefNo']",
	"[id*='ReferenceNo']",
	".reference-number",
	"span:contains('Reference No')",
	"td:contains('Reference No') + td",
}

var (
	// referenceLabel strips a leading "Reference No:" style label.
	referenceLabel = regexp.MustCompile(`(?i)^\s*reference\s*(?:no|number)?\.?\s*[:\-]?\s*`)
	// referenceToken is an alphanumeric run allowing inner '/' and '-'.
	referenceToken = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9/\-]*[A-Za-z0-9]|[A-Za-z0-9]`)
	// referenceMarkup finds the label in raw markup, tolerating tags and
	// non-breaking spaces between label and value.
	referenceMarkup = regexp.MustCompile(`(?i)reference\s*(?:no|number)\.?(?:\s|&nbsp;|<[^>]*>)*[:\-]?(?:\s|&nbsp;|<[^>]*>)*([A-Z0-9][A-Z0-9/\-]*)`)
)

// ReferenceNumber tries the selector list first, then the markup pattern.
func ReferenceNumber(page string) (string, bool) {
	if ref, ok := ReferenceFromSelectors(page); ok {
		return ref, true
	}
	return ReferenceFromMarkup(page)
}

// ReferenceFromSelectors returns the first token found in a known element.
func ReferenceFromSelectors(page string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", false
	}
	for _, sel := range ReferenceSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if ref, ok := firstToken(s.Text()); ok {
				found = ref
				return false
			}
			return true
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

// ReferenceFromMarkup scans raw markup for a "Reference No" label.
func ReferenceFromMarkup(page string) (string, bool) {
	for _, m := range referenceMarkup.FindAllStringSubmatch(page, -1) {
		if ref := strings.TrimRight(m[1], "/-"); hasDigit(ref) {
			return ref, true
		}
	}
	return "", false
}

func firstToken(text string) (string, bool) {
	text = referenceLabel.ReplaceAllString(normalize(text), "")
	for _, tok := range referenceToken.FindAllString(text, -1) {
		if hasDigit(tok) {
			return tok, true
		}
	}
	return "", false
}

// hasDigit filters out plain words; confirmation numbers always carry digits.
func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

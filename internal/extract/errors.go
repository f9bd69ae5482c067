// Package extract reads outcomes out of the form's rendered result page.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrorSummarySelectors are containers the form uses for validation output.
var ErrorSummarySelectors = []string{
	".validation-summary-errors",
	"#ValidationSummary1",
	"[id*=ValidationSummary]",
	".error",
	"span[style*='color:Red']",
}

// ErrorTextPattern flags text nodes that read like a validation message.
var ErrorTextPattern = regexp.MustCompile(`(?i)\b(required|invalid|please select|enter)\b`)

// skipped holds elements whose text is never a rendered validation message.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Title:    true,
	atom.Head:     true,
	atom.Option:   true,
	atom.Label:    true,
	atom.Textarea: true,
	atom.Button:   true,
	atom.Template: true,
}

const maxMessages = 20

// ValidationErrors returns the visible validation messages on the page, in
// document order. An empty result means none were found.
func ValidationErrors(page string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = normalize(s)
		if s == "" || seen[s] || len(out) >= maxMessages {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for _, sel := range ErrorSummarySelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if hiddenSelection(s) {
				return
			}
			if items := s.Find("li"); items.Length() > 0 {
				items.Each(func(_ int, li *goquery.Selection) { add(li.Text()) })
				return
			}
			add(s.Text())
		})
	}

	for _, root := range doc.Find("body").Nodes {
		walkText(root, func(text string) {
			if ErrorTextPattern.MatchString(text) {
				add(text)
			}
		})
	}
	return out
}

// walkText visits visible text nodes below n.
func walkText(n *html.Node, visit func(string)) {
	if n.Type == html.ElementNode && (skipped[n.DataAtom] || hiddenNode(n)) {
		return
	}
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			visit(t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, visit)
	}
}

func hiddenSelection(s *goquery.Selection) bool {
	for _, n := range s.Nodes {
		for p := n; p != nil; p = p.Parent {
			if p.Type == html.ElementNode && hiddenNode(p) {
				return true
			}
		}
	}
	return false
}

// hiddenNode reports inline-hidden elements; ASP.NET validators render hidden
// until they fire.
func hiddenNode(n *html.Node) bool {
	if n.DataAtom == atom.Input {
		return true
	}
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "hidden":
			return true
		case "style":
			style := strings.ToLower(strings.ReplaceAll(a.Val, " ", ""))
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package web

import (
	"cmp"
	"fmt"
	"html"
	"html/template"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/spacesedan/verity/internal/bias"
)

const unknownDate = "Unknown date"

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDatetime": formatDatetime,
		"highlight":      highlight,
		"wordCategory":   bias.GetWordContribution,
		"percent":        percent,
	}
}

// formatDatetime turns "2025-03-01T10:00:00Z" into "03/01/2025". Values that do
// not start with a YYYY-MM-DD date are returned unchanged.
func formatDatetime(value string) string {
	if value == "" {
		return unknownDate
	}

	datePart, _, _ := strings.Cut(value, "T")
	elems := strings.Split(datePart, "-")
	if len(elems) == 3 {
		return fmt.Sprintf("%s/%s/%s", elems[1], elems[2], elems[0])
	}
	return value
}

// highlight escapes title and wraps every whole-word, case-insensitive
// occurrence of words in a <mark> classed by the word's category.
func highlight(title string, words []string) template.HTML {
	if len(words) == 0 {
		return template.HTML(html.EscapeString(title))
	}

	// longest first so phrases win over their prefixes
	sorted := slices.Clone(words)
	slices.SortFunc(sorted, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(b), len(a)), strings.Compare(a, b))
	})
	sorted = slices.Compact(sorted)

	var b strings.Builder
	last := 0
	for i := 0; i < len(title); {
		end := matchAt(title, i, sorted)
		if end < 0 {
			_, size := utf8.DecodeRuneInString(title[i:])
			i += size
			continue
		}
		match := title[i:end]
		b.WriteString(html.EscapeString(title[last:i]))
		fmt.Fprintf(&b, `<mark class="emotional-word %s">%s</mark>`,
			bias.GetWordContribution(match), html.EscapeString(match))
		last, i = end, end
	}
	b.WriteString(html.EscapeString(title[last:]))

	return template.HTML(b.String())
}

// matchAt returns the end of the first word that matches title at i as a whole
// word, or -1.
func matchAt(title string, i int, words []string) int {
	if !bias.IsBoundary(title, i) {
		return -1
	}
	for _, w := range words {
		end := i + len(w)
		if w == "" || end > len(title) {
			continue
		}
		if strings.EqualFold(title[i:end], w) && bias.IsBoundary(title, end) {
			return end
		}
	}
	return -1
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

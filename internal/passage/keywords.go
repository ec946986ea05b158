package passage

import (
	"strings"
	"unicode/utf8"
)

var questionPunct = strings.NewReplacer("?", "", ".", "", ",", "", "!", "")

// Keywords derives the search terms for question. Tokens are kept in the order
// they first appear, followed by any domain keywords whose trigger matched.
func (e *Extractor) Keywords(question string) []string {
	lower := strings.ToLower(question)
	seen := make(map[string]struct{})
	var out []string
	add := func(kw string) {
		if kw == "" {
			return
		}
		if _, ok := seen[kw]; ok {
			return
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}

	for _, tok := range strings.Fields(questionPunct.Replace(lower)) {
		if utf8.RuneCountInString(tok) <= KeywordLengthThreshold {
			continue
		}
		if _, isStop := e.stopwords[tok]; isStop {
			continue
		}
		add(tok)
	}

	// Domain keywords are trusted and skip the length and stopword filters.
	for _, m := range e.domainKeywords {
		if m.Trigger == "" || !strings.Contains(lower, m.Trigger) {
			continue
		}
		for _, kw := range m.Keywords {
			add(strings.ToLower(strings.TrimSpace(kw)))
		}
	}
	return out
}

package passage

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// selectPassages ranks passages by score, earlier start first on ties, and
// greedily accepts non-overlapping ones until the budget is spent. It returns
// the accepted passages and their trimmed text, both in selection order.
func (e *Extractor) selectPassages(document string, passages []Passage) ([]Passage, []string) {
	if len(passages) == 0 {
		return nil, nil
	}
	ranked := make([]Passage, len(passages))
	copy(ranked, passages)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Start < ranked[j].Start
	})

	var (
		used  []Passage
		texts []string
		total int
	)
	for _, p := range ranked {
		if overlapsAny(p, used) {
			continue
		}
		text := strings.TrimSpace(document[p.Start:p.End])
		n := utf8.RuneCountInString(text)
		if total+n+separatorOverhead > e.maxContextLength {
			break
		}
		used = append(used, p)
		texts = append(texts, text)
		total += n + separatorOverhead
	}
	return used, texts
}

// overlapsAny reports whether p shares at least one byte with a used range.
// Ranges that only touch do not overlap.
func overlapsAny(p Passage, used []Passage) bool {
	for _, u := range used {
		if p.Start < u.End && p.End > u.Start {
			return true
		}
	}
	return false
}

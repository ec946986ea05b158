package passage

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// locate finds every occurrence of every keyword and merges the windows built
// around them into passages.
func (e *Extractor) locate(document string, keywords []string) []Passage {
	if len(keywords) == 0 {
		return nil
	}
	folded := foldCase(document)
	half := e.passageWindow / 2
	var m merger
	for _, kw := range keywords {
		needle := foldCase(kw)
		if needle == "" {
			continue
		}
		from := 0
		for from <= len(folded) {
			i := strings.Index(folded[from:], needle)
			if i < 0 {
				break
			}
			idx := from + i
			start := floorRune(document, max(0, idx-half))
			end := ceilRune(document, min(len(document), idx+len(needle)+half))
			m.add(start, end)
			from = idx + len(needle)
		}
	}
	return m.passages
}

// foldCase lowercases s without changing the byte offset of any rune, so
// indexes into the result are valid indexes into s. This is a simple
// per-rune fold, not full Unicode case folding: runes whose lowercase form
// has a different encoded width (such as 'İ') are left as they are and will
// not match their lowercase spelling.
func foldCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if lr := unicode.ToLower(r); r != utf8.RuneError && lr != r && utf8.RuneLen(lr) == size {
			b.WriteRune(lr)
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

func floorRune(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

func ceilRune(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

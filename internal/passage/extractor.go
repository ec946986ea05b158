package passage

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxContextLength is the character budget of an assembled excerpt.
	MaxContextLength = 25000
	// PassageWindow is the width of context captured around a keyword hit.
	PassageWindow = 1500
	// KeywordLengthThreshold is the length a question token must exceed to be kept.
	KeywordLengthThreshold = 2

	separatorOverhead = 10
	passageSeparator  = "\n\n---\n\n"
	fallbackSeparator = "\n\n[...]\n\n"
)

// DomainKeyword adds Keywords to the search when Trigger occurs in the question.
type DomainKeyword struct {
	Trigger  string   `yaml:"trigger"`
	Keywords []string `yaml:"keywords"`
}

// Passage is a contiguous byte range [Start, End) of the document with the
// number of keyword hits that fell into it.
type Passage struct {
	Start int
	End   int
	Score int
}

// Len returns the byte length of the range.
func (p Passage) Len() int { return p.End - p.Start }

// Result is an excerpt together with the details of how it was built.
// Texts holds the trimmed text of each entry of Passages, in the same order.
type Result struct {
	Text     string
	Keywords []string
	Passages []Passage
	Texts    []string
	Fallback bool
}

// Extractor selects the passages of a document most likely to answer a question.
// It holds only immutable configuration and is safe for concurrent use.
type Extractor struct {
	maxContextLength int
	passageWindow    int
	stopwords        map[string]struct{}
	domainKeywords   []DomainKeyword
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStopwords replaces the built-in stopword set. A nil or empty list keeps the default.
func WithStopwords(words []string) Option {
	return func(e *Extractor) {
		if len(words) == 0 {
			return
		}
		lowered := make([]string, len(words))
		for i, w := range words {
			lowered[i] = strings.ToLower(strings.TrimSpace(w))
		}
		e.stopwords = toSet(lowered)
	}
}

// WithDomainKeywords sets the trigger to keyword augmentation rules, applied in order.
func WithDomainKeywords(mapping []DomainKeyword) Option {
	return func(e *Extractor) {
		e.domainKeywords = make([]DomainKeyword, 0, len(mapping))
		for _, m := range mapping {
			kws := make([]string, len(m.Keywords))
			copy(kws, m.Keywords)
			e.domainKeywords = append(e.domainKeywords, DomainKeyword{Trigger: strings.ToLower(m.Trigger), Keywords: kws})
		}
	}
}

// WithMaxContextLength overrides the excerpt budget.
func WithMaxContextLength(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxContextLength = n
		}
	}
}

// WithPassageWindow overrides the context window built around each hit.
func WithPassageWindow(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.passageWindow = n
		}
	}
}

// New creates an Extractor with the default constants and stopwords.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		maxContextLength: MaxContextLength,
		passageWindow:    PassageWindow,
		stopwords:        DefaultStopwords(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns an excerpt of document relevant to question.
func (e *Extractor) Extract(document, question string) string {
	return e.ExtractResult(document, question).Text
}

// ExtractResult is Extract with the keywords and selected passages exposed.
func (e *Extractor) ExtractResult(document, question string) Result {
	if document == "" {
		return Result{}
	}
	keywords := e.Keywords(question)
	passages := e.locate(document, keywords)
	selected, texts := e.selectPassages(document, passages)
	if len(selected) == 0 {
		return Result{Text: e.fallback(document), Keywords: keywords, Fallback: true}
	}
	return Result{
		Text:     strings.TrimSpace(strings.Join(texts, passageSeparator)),
		Keywords: keywords,
		Passages: selected,
		Texts:    texts,
	}
}

// fallback returns the head and tail of the document when nothing matched.
func (e *Extractor) fallback(document string) string {
	half := e.maxContextLength / 2
	return headRunes(document, half) + fallbackSeparator + tailRunes(document, half)
}

func headRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func tailRunes(s string, n int) string {
	end := len(s)
	for i := 0; i < n && end > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(s[:end])
		end -= size
	}
	return s[end:]
}

package passage

import (
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_EmptyDocument(t *testing.T) {
	e := New()
	assert.Equal(t, "", e.Extract("", "Who was Kurtz?"))
	assert.Equal(t, "", e.Extract("", ""))

	res := e.ExtractResult("", "Who was Kurtz?")
	assert.Nil(t, res.Keywords)
	assert.False(t, res.Fallback)
}

func TestExtract_Kurtz(t *testing.T) {
	doc := "The Nellie swung to anchor. ... Kurtz was a remarkable man who collected ivory."
	out := New().Extract(doc, "Who was Kurtz?")
	assert.Contains(t, out, "Kurtz")
	assert.Contains(t, out, "remarkable man")
	assert.NotContains(t, out, "[...]")
}

func TestExtract_FallbackWhenNothingMatches(t *testing.T) {
	doc := strings.Repeat("A", 100000)
	res := New().ExtractResult(doc, "test")

	require.True(t, res.Fallback)
	assert.Equal(t, []string{"test"}, res.Keywords)
	assert.Empty(t, res.Passages)
	assert.LessOrEqual(t, len(res.Text), 25100)

	half := MaxContextLength / 2
	assert.Equal(t, doc[:half]+"\n\n[...]\n\n"+doc[len(doc)-half:], res.Text)
}

func TestExtract_FallbackOnStopwordOnlyQuestion(t *testing.T) {
	doc := "The river ran to the sea."
	res := New().ExtractResult(doc, "What is the?")
	assert.True(t, res.Fallback)
	assert.Empty(t, res.Keywords)
	// a short document appears whole on both sides of the marker
	assert.Equal(t, doc+"\n\n[...]\n\n"+doc, res.Text)
}

func TestExtract_FallbackCountsCharacters(t *testing.T) {
	doc := strings.Repeat("é", 30000)
	out := New(WithMaxContextLength(10)).Extract(doc, "zebra")
	assert.Equal(t, "ééééé\n\n[...]\n\nééééé", out)
}

func TestExtract_DistantOccurrencesAreSeparated(t *testing.T) {
	filler := strings.Repeat("filler text ", 500)
	doc := "alpha begins here. " + filler + " and alpha ends here."
	res := New().ExtractResult(doc, "alpha")

	require.Len(t, res.Passages, 2)
	assert.Contains(t, res.Text, "---")
	parts := strings.Split(res.Text, "\n\n---\n\n")
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0], "alpha begins")
	assert.Contains(t, parts[1], "alpha ends")
}

func TestExtract_HigherScoreFirst(t *testing.T) {
	filler := strings.Repeat("lorem ipsum ", 400)
	doc := "beta appears once. " + filler + "gamma and again gamma. " + filler
	res := New().ExtractResult(doc, "beta gamma")

	require.Len(t, res.Passages, 2)
	assert.Equal(t, 2, res.Passages[0].Score)
	assert.Equal(t, 1, res.Passages[1].Score)
	assert.True(t, strings.Index(res.Text, "gamma") < strings.Index(res.Text, "beta"))
}

func TestExtract_TiesKeepDocumentOrder(t *testing.T) {
	filler := strings.Repeat("lorem ipsum ", 400)
	doc := "delta " + filler + "epsilon " + filler + "zeta"
	res := New().ExtractResult(doc, "zeta epsilon delta")

	require.Len(t, res.Passages, 3)
	for i := 1; i < len(res.Passages); i++ {
		assert.Less(t, res.Passages[i-1].Start, res.Passages[i].Start)
	}
}

func TestExtract_BudgetStopsSelection(t *testing.T) {
	doc := strings.Repeat(strings.Repeat(".", 50)+"key", 10)
	e := New(WithPassageWindow(10), WithMaxContextLength(100))
	res := e.ExtractResult(doc, "key")

	// each passage is 13 characters plus 10 of overhead: four fit in 100
	require.Len(t, res.Passages, 4)
	for _, p := range res.Passages {
		assert.Equal(t, 13, p.Len())
	}
	assert.Equal(t, 4, strings.Count(res.Text, "key"))
	assert.Equal(t, 3, strings.Count(res.Text, "---"))
}

func TestExtract_OversizedTopPassageFallsBack(t *testing.T) {
	doc := strings.Repeat("key ", 100)
	e := New(WithPassageWindow(20), WithMaxContextLength(100))
	res := e.ExtractResult(doc, "key")

	// every window chains into one passage of 399 characters, over the budget
	require.True(t, res.Fallback)
	assert.Empty(t, res.Passages)
	assert.Equal(t, doc[:50]+fallbackSeparator+doc[len(doc)-50:], res.Text)
}

func TestExtract_TextsFollowPassages(t *testing.T) {
	doc := "Kurtz spoke.\n\n---\n\nThe manager listened."
	res := New().ExtractResult(doc, "Kurtz")

	require.Len(t, res.Passages, 1)
	require.Len(t, res.Texts, 1)
	assert.Equal(t, strings.TrimSpace(doc), res.Texts[0])
	assert.Equal(t, res.Texts[0], res.Text)
}

func TestExtract_BudgetInvariant(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("The ivory trade ")
		b.WriteString(strings.Repeat("and the jungle was dark ", 100))
	}
	doc := b.String()
	res := New().ExtractResult(doc, "Tell me about the ivory trade")

	require.NotEmpty(t, res.Passages)
	assert.LessOrEqual(t, utf8.RuneCountInString(res.Text), MaxContextLength+len(passageSeparator))
}

func TestExtract_NonOverlappingPassages(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("river ")
		b.WriteString(strings.Repeat("x", 300+i*37))
		b.WriteString(" station ")
	}
	res := New().ExtractResult(b.String(), "river station")

	require.NotEmpty(t, res.Passages)
	for i := range res.Passages {
		for j := i + 1; j < len(res.Passages); j++ {
			a, c := res.Passages[i], res.Passages[j]
			assert.False(t, a.Start < c.End && a.End > c.Start, "passages %v and %v overlap", a, c)
		}
	}
}

func TestExtract_CaseInsensitive(t *testing.T) {
	doc := strings.Repeat("z", 2000) + " MARLOW spoke " + strings.Repeat("z", 2000)
	out := New().Extract(doc, "marlow")
	assert.Contains(t, out, "MARLOW spoke")
}

func TestExtract_MultibyteBoundaries(t *testing.T) {
	doc := strings.Repeat("ü", 1000) + "Kurtz" + strings.Repeat("ö", 1000)
	out := New().Extract(doc, "kurtz")

	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "Kurtz")
}

func TestExtract_Idempotent(t *testing.T) {
	filler := strings.Repeat("the brown water ", 120)
	doc := "Kurtz " + filler + "ivory " + filler + "Kurtz and the ivory " + filler
	e := New(WithDomainKeywords([]DomainKeyword{{Trigger: "kurtz", Keywords: []string{"ivory"}}}))

	first := e.Extract(doc, "Who was Kurtz?")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, e.Extract(doc, "Who was Kurtz?"))
	}
}

func TestExtract_ConcurrentCalls(t *testing.T) {
	filler := strings.Repeat("fog on the thames ", 200)
	doc := "Marlow " + filler + "Kurtz " + filler + "Marlow"
	e := New()
	want := e.Extract(doc, "Marlow and Kurtz")

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Extract(doc, "Marlow and Kurtz")
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestExtract_KeywordInclusion(t *testing.T) {
	filler := strings.Repeat("nothing to see ", 300)
	doc := filler + "the Intended waited " + filler
	out := New().Extract(doc, "Who is the intended?")
	assert.Contains(t, strings.ToLower(out), "intended")
}

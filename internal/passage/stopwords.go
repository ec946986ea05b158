package passage

// DefaultStopwords returns the built-in set of words never used as keywords.
func DefaultStopwords() map[string]struct{} {
	return toSet(defaultStopwords)
}

var defaultStopwords = []string{
	// articles and determiners
	"the", "a", "an", "this", "that", "these", "those", "some", "any", "all", "each", "every",
	// auxiliaries
	"is", "are", "was", "were", "be", "been", "being", "am", "do", "does", "did", "done",
	"have", "has", "had", "having", "can", "could", "will", "would", "shall", "should", "may", "might", "must",
	// question words
	"who", "whom", "whose", "what", "which", "when", "where", "why", "how",
	// prepositions
	"about", "above", "after", "against", "along", "among", "around", "at", "before", "behind", "below",
	"beneath", "beside", "between", "beyond", "by", "down", "during", "for", "from", "in", "inside", "into",
	"near", "of", "off", "on", "onto", "out", "over", "through", "to", "toward", "towards", "under", "until",
	"upon", "with", "within", "without",
	// conjunctions
	"and", "but", "or", "nor", "so", "yet", "because", "although", "though", "while", "if", "than", "then",
	// pronouns
	"he", "him", "his", "she", "her", "hers", "it", "its", "they", "them", "their", "theirs",
	"you", "your", "yours", "we", "our", "ours", "me", "my", "mine",
	// filler common in questions
	"not", "there", "here", "also", "just", "very", "really", "much", "many", "more", "most",
	"tell", "explain", "describe", "does", "mean", "happen", "happens", "happened",
	// narrative words that hit every page of a literary corpus
	"story", "novella", "novel", "book", "chapter", "text", "author", "narrator", "character", "characters",
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

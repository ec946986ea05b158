// Package passage turns a large reference document and a question into a short
// excerpt for a language model prompt.
//
// Keywords are derived from the question, every case-insensitive occurrence in
// the document is widened into a window of surrounding text, overlapping windows
// are merged into scored passages, and the best non-overlapping passages are
// joined until the size budget runs out. When nothing matches, the head and tail
// of the document are returned instead.
package passage

package loader

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/microcosm-cc/bluemonday"
)

type parseFunc func(data []byte) (string, error)

func parserFor(path string) (parseFunc, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", "":
		return parseText, nil
	case ".md", ".markdown":
		return parseMarkdown, nil
	case ".html", ".htm":
		return parseHTML, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func parseText(data []byte) (string, error) {
	return string(data), nil
}

func parseMarkdown(data []byte) (string, error) {
	return parseHTML(markdown.ToHTML(data, nil, nil))
}

var (
	htmlPolicy  = bluemonday.UGCPolicy()
	blockTags   = "p, div, li, tr, pre, blockquote, h1, h2, h3, h4, h5, h6, br, hr"
	blankLineRe = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
)

// parseHTML strips markup and keeps block boundaries as blank lines.
func parseHTML(data []byte) (string, error) {
	clean := htmlPolicy.SanitizeBytes(data)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(clean))
	if err != nil {
		return "", err
	}
	doc.Find(blockTags).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n\n")
	})
	text := blankLineRe.ReplaceAllString(doc.Text(), "\n\n")
	return strings.TrimSpace(text), nil
}

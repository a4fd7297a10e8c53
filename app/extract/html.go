package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// htmlText strips markup, scripts and styles and collapses whitespace into
// single spaces.
func htmlText(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", ErrBadEncoding
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", err
	}

	doc.Find("script, style").Remove()

	text := strings.Join(strings.Fields(doc.Text()), " ")
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

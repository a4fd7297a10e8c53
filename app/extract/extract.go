package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// MaxFileSize caps uploads at 10MB; this bound is what keeps fully
// materialized chunking acceptable downstream.
const MaxFileSize = 10 * 1024 * 1024

var (
	ErrUnsupportedType = errors.New("extract: file type not allowed")
	ErrFileTooLarge    = fmt.Errorf("extract: file too large, maximum size %dMB", MaxFileSize/(1024*1024))
	ErrBadEncoding     = errors.New("extract: file encoding not supported, please use UTF-8")
	ErrNoText          = errors.New("extract: no text content found in file")
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
}

// ValidateFile checks the extension allow-list, the size cap and the sniffed
// MIME type, returning the canonical MIME type used for extraction.
func ValidateFile(filename string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	if len(content) > MaxFileSize {
		return "", ErrFileTooLarge
	}

	detected := mimetype.Detect(content)
	switch {
	case detected.Is("application/pdf"):
		return "application/pdf", nil
	case detected.Is("text/html"), detected.Is("application/xhtml+xml"):
		return "text/html", nil
	case detected.Is("text/plain"), detected.Is("text/markdown"):
		return "text/plain", nil
	}

	// Content sniffing can misread small text files; fall back to the
	// extension like the allow-list implies.
	switch ext {
	case ".pdf":
		return "application/pdf", nil
	case ".txt", ".md":
		return "text/plain", nil
	case ".html", ".htm":
		return "text/html", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, detected.String())
}

// Text extracts plain UTF-8 text from an uploaded file's raw bytes.
func Text(content []byte, mimeType string) (string, error) {
	switch mimeType {
	case "application/pdf":
		return pdfText(content)
	case "text/html":
		return htmlText(content)
	case "text/plain":
		if !utf8.Valid(content) {
			return "", ErrBadEncoding
		}
		return string(content), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
}

package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// pdfText extracts page content via pdfcpu. pdfcpu has no direct text
// extraction, so page content streams are extracted to a scratch directory
// and stitched back together with page markers.
func pdfText(content []byte) (string, error) {
	scratch, err := os.MkdirTemp("", "knowledge-pdf-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(scratch)

	pdfFile := filepath.Join(scratch, "upload.pdf")
	if err = os.WriteFile(pdfFile, content, 0o644); err != nil {
		return "", err
	}

	pdfCtx, err := api.ReadContextFile(pdfFile)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(scratch, "pages")
	if err = os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	if err = api.ExtractContentFile(pdfFile, outDir, nil, nil); err != nil {
		return "", fmt.Errorf("extract pdf content: %w", err)
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err != nil {
				continue
			}
		}
		pageTexts[pageNum] = string(raw)
	}

	var pages []string
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		text := strings.TrimSpace(pageTexts[pageNum])
		if text == "" {
			continue
		}
		pages = append(pages, fmt.Sprintf("--- Page %d ---\n%s", pageNum, text))
	}
	if len(pages) == 0 {
		return "", ErrNoText
	}
	return strings.Join(pages, "\n\n"), nil
}

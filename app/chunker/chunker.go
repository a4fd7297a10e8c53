package chunker

import (
	"errors"
	"strings"
)

const (
	DefaultTargetSize = 1000
	DefaultOverlap    = 200

	// How far around a window boundary we look for a sentence terminator.
	boundaryRadius = 100
)

var ErrInvalidConfiguration = errors.New("chunker: overlap must satisfy 0 <= overlap < target size")

func isBoundary(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}

// Split cuts text into overlapping segments of roughly targetSize runes.
// Window ends are nudged to the nearest sentence terminator within
// boundaryRadius so segments end on sentence boundaries when possible.
// Consecutive segments share up to overlap runes of context, which keeps
// sentences cut at a window edge findable from either neighbor.
func Split(text string, targetSize, overlap int) ([]string, error) {
	if targetSize <= 0 || overlap < 0 || overlap >= targetSize {
		return nil, ErrInvalidConfiguration
	}

	runes := []rune(text)
	if len(runes) <= targetSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil, nil
		}
		return []string{trimmed}, nil
	}

	var segments []string
	start := 0
	for start < len(runes) {
		end := start + targetSize

		if end < len(runes) {
			from := end - boundaryRadius
			if from <= start {
				from = start + 1
			}
			to := end + boundaryRadius
			if to > len(runes) {
				to = len(runes)
			}
			for i := from; i < to; i++ {
				if isBoundary(runes[i]) {
					end = i + 1
					break
				}
			}
		}

		stop := end
		if stop > len(runes) {
			stop = len(runes)
		}
		if segment := strings.TrimSpace(string(runes[start:stop])); segment != "" {
			segments = append(segments, segment)
		}

		// Unclamped end lets start step past len(runes) after the last window.
		next := end - overlap
		if next <= start {
			// A boundary close to the window start would otherwise stall the scan.
			next = stop
			if next <= start {
				next = start + 1
			}
		}
		start = next
	}

	return segments, nil
}

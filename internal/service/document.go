package service

import (
	"fmt"
	"strings"

	"github.com/finatlas/finatlas/internal/domain"
)

// chunkSeparators is the split priority list: paragraph, line, sentence,
// word, then single characters as a last resort.
var chunkSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// ChunkConfig controls chunking of oversized documents.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    500,
		Overlap: 50,
	}
}

// BuildDocument renders a normalized entity into searchable text. Rendering
// order is fixed; absent optional fields are omitted rather than rendered as
// empty placeholders.
func BuildDocument(e domain.Entity) string {
	parts := []string{
		fmt.Sprintf("Name: %s", e.Name),
		fmt.Sprintf("Type: %s", e.Type),
		fmt.Sprintf("Country: %s", e.Country),
	}

	if e.Description != "" {
		parts = append(parts, fmt.Sprintf("Description: %s", e.Description))
	}
	if len(e.Services) > 0 {
		parts = append(parts, fmt.Sprintf("Services: %s", strings.Join(e.Services, ", ")))
	}
	if len(e.SupportedCurrencies) > 0 {
		parts = append(parts, fmt.Sprintf("Supported Currencies: %s", strings.Join(e.SupportedCurrencies, ", ")))
	}
	if e.APIAvailable {
		parts = append(parts, "API: Available")
	}
	if e.URL != "" {
		parts = append(parts, fmt.Sprintf("Website: %s", e.URL))
	}

	return strings.Join(parts, "\n")
}

// ChunkText splits text into chunks of at most cfg.Size runes, preferring
// high-level separators and repeating cfg.Overlap runes of trailing content
// between adjacent chunks. Splitting is pure: the same text and config always
// produce the same sequence. Text at or under the size limit is returned as a
// single chunk unchanged.
func ChunkText(text string, cfg ChunkConfig) []string {
	if cfg.Size <= 0 {
		cfg = DefaultChunkConfig()
	}
	if len([]rune(text)) <= cfg.Size {
		return []string{text}
	}

	pieces := splitBySeparators(text, chunkSeparators, cfg.Size)
	return packChunks(pieces, cfg)
}

// splitBySeparators recursively breaks text into pieces no longer than max
// runes, trying each separator in priority order before falling back to a
// hard rune split.
func splitBySeparators(text string, seps []string, max int) []string {
	if len([]rune(text)) <= max {
		return []string{text}
	}
	if len(seps) == 0 || seps[0] == "" {
		return splitRunes(text, max)
	}

	sep, rest := seps[0], seps[1:]
	segments := strings.SplitAfter(text, sep)
	if len(segments) == 1 {
		return splitBySeparators(text, rest, max)
	}

	pieces := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if len([]rune(seg)) > max {
			pieces = append(pieces, splitBySeparators(seg, rest, max)...)
			continue
		}
		pieces = append(pieces, seg)
	}
	return pieces
}

func splitRunes(text string, max int) []string {
	runes := []rune(text)
	out := make([]string, 0, (len(runes)+max-1)/max)
	for start := 0; start < len(runes); start += max {
		end := start + max
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// packChunks greedily merges pieces into chunks of at most cfg.Size runes,
// carrying cfg.Overlap runes of the previous chunk into the next one to
// preserve cross-boundary context.
func packChunks(pieces []string, cfg ChunkConfig) []string {
	var chunks []string
	var current string

	for _, piece := range pieces {
		if current == "" {
			current = piece
			continue
		}
		if len([]rune(current))+len([]rune(piece)) <= cfg.Size {
			current += piece
			continue
		}

		chunks = append(chunks, strings.TrimSpace(current))
		current = overlapTail(current, cfg, piece) + piece
	}

	if trimmed := strings.TrimSpace(current); trimmed != "" {
		chunks = append(chunks, trimmed)
	}
	return chunks
}

// overlapTail returns the trailing overlap of the previous chunk, shortened
// when needed so that tail+next still fits under the size limit.
func overlapTail(prev string, cfg ChunkConfig, next string) string {
	if cfg.Overlap <= 0 {
		return ""
	}
	runes := []rune(prev)
	overlap := cfg.Overlap
	if overlap > len(runes) {
		overlap = len(runes)
	}
	if room := cfg.Size - len([]rune(next)); overlap > room {
		overlap = room
	}
	if overlap <= 0 {
		return ""
	}
	return string(runes[len(runes)-overlap:])
}

package chunker

import (
	"strings"
	"unicode/utf8"

	"unified-assistant/internal/models"
)

// Splitter recursively splits text on an ordered separator list, packing the
// pieces into chunks of at most ChunkSize runes with ChunkOverlap runes
// carried between neighbours. Sizes count runes throughout so multi-byte
// text is chunked consistently.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// SOP corpora are markdown with heavy section markers; HC manuals are prose.
func sopSeparators() []string {
	return []string{
		"\n================================================================================\n",
		"\n## ",
		"\n### ",
		"\n\n",
		"\n",
		" ",
		"",
	}
}

func hcSeparators() []string {
	return []string{"\n\n", "\n", ". ", " ", ""}
}

// NewSplitter returns the splitter configured for the domain.
func NewSplitter(domain models.Domain, chunkSize, chunkOverlap int) *Splitter {
	seps := hcSeparators()
	if domain == models.DomainSOP {
		seps = sopSeparators()
	}
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 120
	}
	return &Splitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap, Separators: seps}
}

// Split breaks text into chunks. Whitespace-only pieces are dropped.
func (s *Splitter) Split(text string) []string {
	pieces := s.split(text, s.Separators)
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Splitter) split(text string, separators []string) []string {
	if utf8.RuneCountInString(text) <= s.ChunkSize {
		return []string{text}
	}

	sep := ""
	rest := separators
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var parts []string
	if sep == "" {
		parts = splitRunes(text, s.ChunkSize)
	} else {
		parts = splitKeepSep(text, sep)
	}

	var final []string
	var pending []string
	for _, part := range parts {
		if utf8.RuneCountInString(part) > s.ChunkSize {
			final = append(final, s.merge(pending, sep)...)
			pending = nil
			if len(rest) > 0 {
				final = append(final, s.split(part, rest)...)
			} else {
				final = append(final, splitRunes(part, s.ChunkSize)...)
			}
			continue
		}
		pending = append(pending, part)
	}
	final = append(final, s.merge(pending, sep)...)
	return final
}

// merge packs small parts into chunks up to ChunkSize runes, carrying
// ChunkOverlap trailing runes into the next chunk.
func (s *Splitter) merge(parts []string, sep string) []string {
	if len(parts) == 0 {
		return nil
	}
	var chunks []string
	var cur strings.Builder
	curLen := 0
	for _, part := range parts {
		partLen := utf8.RuneCountInString(part)
		if curLen > 0 && curLen+partLen > s.ChunkSize {
			chunk := cur.String()
			chunks = append(chunks, chunk)
			cur.Reset()
			curLen = 0
			if s.ChunkOverlap > 0 && utf8.RuneCountInString(chunk) > s.ChunkOverlap {
				tail := tailRunes(chunk, s.ChunkOverlap)
				cur.WriteString(tail)
				curLen = utf8.RuneCountInString(tail)
				if sep != "" && sep != " " {
					cur.WriteString(sep)
					curLen += utf8.RuneCountInString(sep)
				}
			}
		}
		cur.WriteString(part)
		curLen += partLen
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// splitKeepSep splits on sep and re-attaches the separator to the head of
// each following part so no text is lost.
func splitKeepSep(text, sep string) []string {
	raw := strings.Split(text, sep)
	parts := make([]string, 0, len(raw))
	for i, p := range raw {
		if i > 0 {
			p = sep + p
		}
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}

// splitRunes hard-cuts text on rune boundaries.
func splitRunes(text string, size int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

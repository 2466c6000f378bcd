package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"unified-assistant/internal/models"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(models.DomainHC, 800, 120)
	chunks := s.Split("Annual leave is 12 working days per year.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewSplitter(models.DomainHC, 100, 20)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Every employee must file the attendance form. ")
	}

	chunks := s.Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d exceeds size: %d chars", i, len(c))
		}
	}
}

func TestSplitPreservesAllSentences(t *testing.T) {
	s := NewSplitter(models.DomainHC, 120, 0)

	text := "First policy sentence here. Second policy sentence here. Third policy sentence here. Fourth policy sentence here. Fifth policy sentence here."
	chunks := s.Split(text)

	joined := strings.Join(chunks, "")
	for _, word := range []string{"First", "Second", "Third", "Fourth", "Fifth"} {
		if !strings.Contains(joined, word) {
			t.Errorf("lost sentence containing %q", word)
		}
	}
}

func TestSplitCarriesOverlap(t *testing.T) {
	s := NewSplitter(models.DomainHC, 100, 30)

	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("Reimbursement claims need a receipt attached always. ")
	}

	chunks := s.Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// The head of each later chunk repeats the tail of the previous one.
	for i := 1; i < len(chunks); i++ {
		tail := chunks[i-1][len(chunks[i-1])-10:]
		if !strings.Contains(chunks[i], strings.TrimSpace(tail)) {
			t.Errorf("chunk %d does not carry overlap from its predecessor", i)
		}
	}
}

func TestSplitSOPPrefersSectionBoundaries(t *testing.T) {
	s := NewSplitter(models.DomainSOP, 200, 0)

	text := "## Section One\nStep 1. Do the thing.\nStep 2. Record it.\n" +
		strings.Repeat("Filler sentence for length padding here. ", 4) +
		"\n## Section Two\nStep 1. Clean the line.\nStep 2. Sign off.\n" +
		strings.Repeat("More filler to push past the chunk size limit. ", 4)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected a split at the section boundary, got %d chunks", len(chunks))
	}

	var sectionTwoChunk string
	for _, c := range chunks {
		if strings.Contains(c, "Section Two") {
			sectionTwoChunk = c
		}
	}
	if sectionTwoChunk == "" {
		t.Fatal("Section Two heading lost")
	}
	if !strings.HasPrefix(strings.TrimSpace(sectionTwoChunk), "## Section Two") {
		t.Errorf("section heading should start its chunk, got %q", sectionTwoChunk[:40])
	}
}

func TestSplitDropsWhitespaceOnlyPieces(t *testing.T) {
	s := NewSplitter(models.DomainHC, 50, 0)
	chunks := s.Split("   \n\n   \n  ")
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for blank input, got %d", len(chunks))
	}
}

func TestSplitSizesMultiByteTextInRunes(t *testing.T) {
	s := NewSplitter(models.DomainHC, 100, 20)

	// 3-byte runes throughout: byte-based sizing would cut chunks to a
	// third of the configured size.
	sentence := strings.Repeat("操作手順を確認し記録する。", 3) + " "
	text := strings.Repeat(sentence, 20)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	var maxRunes int
	for i, c := range chunks {
		n := utf8.RuneCountInString(c)
		if n > 100 {
			t.Errorf("chunk %d exceeds size: %d runes", i, n)
		}
		if n > maxRunes {
			maxRunes = n
		}
	}
	// Rune-based packing should fill chunks well past the byte-based limit
	// of 100 bytes (~33 runes for this text).
	if maxRunes <= 40 {
		t.Errorf("chunks packed by bytes, largest only %d runes", maxRunes)
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(models.DomainSOP, 0, -1)
	if s.ChunkSize != 800 {
		t.Errorf("expected default chunk size 800, got %d", s.ChunkSize)
	}
	if s.ChunkOverlap != 120 {
		t.Errorf("expected default overlap 120, got %d", s.ChunkOverlap)
	}
}

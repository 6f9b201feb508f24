package ingestion_engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/markdave123-py/policyrag/internal/core"
	"github.com/markdave123-py/policyrag/internal/models"
)

// Chunker slides a fixed window over normalized page text.
//
// Size:     window length in characters (runes).
// Overlap:  characters shared with the previous window of the same page.
// MinChars: windows of this length or shorter are noise and dropped.
type Chunker struct {
	Size     int
	Overlap  int
	MinChars int
}

func NewChunker(size, overlap, minChars int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", core.ErrConfiguration, overlap, size)
	}
	if minChars < 0 {
		minChars = 0
	}
	return &Chunker{Size: size, Overlap: overlap, MinChars: minChars}, nil
}

// Chunk returns the windows of text in order. The window that reaches the
// end of the text is the last one.
func (c *Chunker) Chunk(text string) []string {
	runes := []rune(normalizeText(text))
	step := c.Size - c.Overlap

	var out []string
	for off := 0; off < len(runes); off += step {
		end := min(off+c.Size, len(runes))
		piece := strings.TrimSpace(string(runes[off:end]))
		if utf8.RuneCountInString(piece) > c.MinChars {
			out = append(out, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

// Chunks numbers the emitted windows from 0 within the page.
func (c *Chunker) Chunks(text string) []models.Chunk {
	pieces := c.Chunk(text)
	out := make([]models.Chunk, len(pieces))
	for i, p := range pieces {
		out[i] = models.Chunk{Text: p, Index: i}
	}
	return out
}

// normalizeText drops NUL bytes and collapses whitespace runs to one space.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\x00", " ")), " ")
}

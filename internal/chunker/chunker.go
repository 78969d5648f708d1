// Package chunker splits games into the chunks that get embedded.
//
// Body text is cut into overlapping word windows; the synopsis is kept whole.
// Every chunk is enriched with a provenance prefix naming the game and facet
// before it is handed to the embedding provider.
package chunker

import (
	"fmt"
	"strings"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// DefaultChunkSize is the default number of words per window.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of words shared by adjacent windows.
const DefaultChunkOverlap = 50

// Snippet lengths, in runes, stored in the chunk metadata.
const (
	SummarySnippetLength = 300
	TextSnippetLength    = 200
)

// Chunker turns games into chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the window size in words.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between windows in words.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't reach the window size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the window size in words.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the overlap in words.
func (c *Chunker) Overlap() int { return c.overlap }

// ChunkGame returns the synopsis chunk (if any) followed by the body windows in order.
func (c *Chunker) ChunkGame(game domain.Game) []domain.Chunk {
	var chunks []domain.Chunk

	if game.Summary != "" {
		chunks = append(chunks, domain.Chunk{
			GameID:    game.ID,
			Facet:     domain.FacetSummary,
			Content:   game.Summary,
			EmbedText: fmt.Sprintf("Summary/Description of CYOA game '%s': %s", game.Title, game.Summary),
			Snippet:   Truncate(game.Summary, SummarySnippetLength),
		})
	}

	for i, window := range SplitWords(game.Text, c.chunkSize, c.overlap) {
		chunks = append(chunks, domain.Chunk{
			GameID:    game.ID,
			Facet:     domain.FacetText,
			Content:   window,
			EmbedText: fmt.Sprintf("Text excerpt from CYOA game '%s': %s", game.Title, window),
			Position:  i,
			Snippet:   Truncate(window, TextSnippetLength),
		})
	}

	return chunks
}

// SplitWords cuts text into windows of size words, each starting size-overlap
// words after the previous one. The last window may be short. Callers must
// pass 0 <= overlap < size.
func SplitWords(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 || size <= 0 || overlap < 0 || overlap >= size {
		return nil
	}

	stride := size - overlap
	windows := make([]string, 0, len(words)/stride+1)
	for start := 0; start < len(words); start += stride {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		windows = append(windows, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return windows
}

// Truncate returns the first n runes of s followed by an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r) + "..."
}

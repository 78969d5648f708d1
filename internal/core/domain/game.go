package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"
)

// Game is a single document in the corpus as held by the game store.
// The core only reads its fields and writes IndexedAt back.
type Game struct {
	// ID is the externally assigned identifier.
	ID string `json:"id"`

	// Title is the human-readable title.
	Title string `json:"title"`

	// URL is the original location of the game, if known.
	URL string `json:"url,omitempty"`

	// Text is the raw body text. May be empty.
	Text string `json:"text,omitempty"`

	// Summary is the curated synopsis. May be empty.
	Summary string `json:"summary,omitempty"`

	// IndexedAt is when the game was last fully indexed.
	// Nil means the game is stale and will be picked up by the next build.
	IndexedAt *time.Time `json:"indexed_at,omitempty"`
}

// HasContent reports whether the game has anything to embed.
func (g Game) HasContent() bool {
	return g.Text != "" || g.Summary != ""
}

// ContentHash fingerprints the fields a build embeds. Two snapshots of a
// game with the same hash produce the same chunks.
func (g Game) ContentHash() string {
	h := sha256.New()
	h.Write([]byte(g.Title))
	h.Write([]byte{0})
	h.Write([]byte(g.Summary))
	h.Write([]byte{0})
	h.Write([]byte(g.Text))
	return hex.EncodeToString(h.Sum(nil))
}

// IsIndexed reports whether the game carries an indexed-at timestamp.
func (g Game) IsIndexed() bool {
	return g.IndexedAt != nil
}

// Facet identifies which textual source a chunk came from.
type Facet string

// Available facets. The string values are part of the persisted metadata format.
const (
	// FacetSummary is the synopsis facet. At most one per game.
	FacetSummary Facet = "summary"

	// FacetText is the raw body facet, produced by word windows.
	FacetText Facet = "text"
)

// IsValid returns true if the facet is recognised.
func (f Facet) IsValid() bool {
	return f == FacetSummary || f == FacetText
}

// String returns the string representation.
func (f Facet) String() string {
	return string(f)
}

// Chunk is a unit of text prepared for embedding during a build.
// Chunks are never persisted on their own; only their vector and ChunkMeta survive.
type Chunk struct {
	// GameID links to the owning Game.
	GameID string

	// Facet is the source of the chunk text.
	Facet Facet

	// Content is the raw chunk text (synopsis or word window).
	Content string

	// EmbedText is Content with its provenance prefix, as sent to the embedding provider.
	EmbedText string

	// Position is the ordinal of a body chunk within its game. Zero for synopsis chunks.
	Position int

	// Snippet is a truncated debug preview stored in the chunk metadata.
	Snippet string
}

// Meta returns the metadata entry recorded for this chunk in the index.
func (c Chunk) Meta() ChunkMeta {
	return ChunkMeta{GameID: c.GameID, Facet: c.Facet, Snippet: c.Snippet}
}

// ChunkMeta describes the vector stored at one position of the index.
type ChunkMeta struct {
	GameID  string
	Facet   Facet
	Snippet string
}

// ChunkMap maps vector ids to their provenance.
// Ids are dense: a valid map for an index of n vectors holds keys 0..n-1.
type ChunkMap map[int]ChunkMeta

// GameIDs returns the set of games that have at least one vector in the index.
func (m ChunkMap) GameIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(m))
	for _, meta := range m {
		ids[meta.GameID] = struct{}{}
	}
	return ids
}

// Representatives returns the vector id standing for each game in similarity lookups.
// The first body chunk seen in id order wins unless the game has a synopsis chunk,
// which always overrides it.
func (m ChunkMap) Representatives() map[string]int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	reps := make(map[string]int)
	for _, id := range ids {
		meta := m[id]
		if meta.Facet == FacetSummary {
			reps[meta.GameID] = id
			continue
		}
		if _, ok := reps[meta.GameID]; !ok {
			reps[meta.GameID] = id
		}
	}
	return reps
}

// Dense reports whether the map holds exactly the keys 0..n-1.
func (m ChunkMap) Dense(n int) bool {
	if len(m) != n {
		return false
	}
	for i := 0; i < n; i++ {
		if _, ok := m[i]; !ok {
			return false
		}
	}
	return true
}

package domain

import "time"

// BuildMode is the strategy an index build actually ran with.
type BuildMode string

// Build modes.
const (
	// BuildModeFull discards the existing index pair and re-embeds every game.
	BuildModeFull BuildMode = "full"

	// BuildModeIncremental appends stale games to the existing index pair.
	BuildModeIncremental BuildMode = "incremental"
)

// String returns the string representation.
func (m BuildMode) String() string {
	return string(m)
}

// BuildOptions configures an index build.
type BuildOptions struct {
	// Full forces a full rebuild.
	Full bool

	// Progress, when set, is called after every embedding batch with the
	// number of texts processed so far and the total.
	Progress func(done, total int)
}

// BuildReport describes the outcome of an index build.
type BuildReport struct {
	// ID identifies the build in the build history.
	ID string

	// Requested is the mode the caller asked for.
	Requested BuildMode

	// Mode is the mode the build ran with.
	Mode BuildMode

	// Escalated is true when an incremental build fell back to a full rebuild
	// because a stale game already had vectors in the index.
	Escalated bool

	// StartedAt is the build's wall-clock time; indexed games are stamped with it.
	StartedAt time.Time

	// FinishedAt is when the build ended.
	FinishedAt time.Time

	// Games is the number of games considered.
	Games int

	// Chunks is the number of chunks produced.
	Chunks int

	// Embedded is the number of chunks embedded and written to the index.
	Embedded int

	// Failed is the number of chunks dropped because their batch failed.
	Failed int

	// Indexed is the number of games marked as indexed.
	Indexed int

	// TotalVectors is the size of the index after the build.
	TotalVectors int

	// Written is false when the build had nothing to write.
	Written bool
}

// Duration returns how long the build took.
func (r BuildReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stats summarises the game store.
type Stats struct {
	Total       int `json:"total"`
	WithText    int `json:"with_text"`
	WithSummary int `json:"with_summary"`
	Indexed     int `json:"indexed"`
}

// GameListing is a compact row for the game listing surface.
type GameListing struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	HasSummary bool   `json:"has_summary"`
	IsIndexed  bool   `json:"is_indexed"`
}

// QueryLogEntry is one search recorded in the query log.
type QueryLogEntry struct {
	Time    time.Time  `json:"timestamp"`
	Query   string     `json:"query"`
	Mode    SearchMode `json:"mode"`
	Results int        `json:"results"`
}

// IndexInfo describes the index snapshot a search service has loaded.
type IndexInfo struct {
	Vectors  int       `json:"vectors"`
	Games    int       `json:"games"`
	LoadedAt time.Time `json:"loaded_at"`
}

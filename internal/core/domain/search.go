package domain

// SearchMode selects which facets take part in retrieval.
type SearchMode string

// Available search modes.
const (
	// SearchModeMixed keeps both synopsis and body hits.
	SearchModeMixed SearchMode = "mixed"

	// SearchModeSummary keeps only synopsis hits.
	SearchModeSummary SearchMode = "summary"

	// SearchModeText keeps only body hits.
	SearchModeText SearchMode = "text"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeMixed, SearchModeSummary, SearchModeText:
		return true
	default:
		return false
	}
}

// Accepts reports whether hits of the given facet survive retrieval in this mode.
func (m SearchMode) Accepts(f Facet) bool {
	switch m {
	case SearchModeSummary:
		return f == FacetSummary
	case SearchModeText:
		return f == FacetText
	default:
		return true
	}
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeMixed:
		return "Mixed (synopsis + body)"
	case SearchModeSummary:
		return "Synopsis only"
	case SearchModeText:
		return "Body text only"
	default:
		return "Unknown"
	}
}

// Search defaults.
const (
	DefaultSearchK         = 200
	DefaultSearchThreshold = 0.40
	DefaultSearchLimit     = 20
	DefaultSimilarLimit    = 20
	MinQueryLength         = 2
)

// SearchOptions configures a search query.
// Zero values are replaced by the defaults above.
type SearchOptions struct {
	// Mode is the facet filter.
	Mode SearchMode

	// K is the number of nearest neighbours fetched in the retrieval phase.
	K int

	// Threshold is the minimum similarity a hit needs to survive.
	// Nil means DefaultSearchThreshold; zero is a valid explicit threshold.
	Threshold *float64

	// Limit is the maximum number of games returned.
	Limit int
}

// WithDefaults returns a copy with unset fields filled in.
func (o SearchOptions) WithDefaults() SearchOptions {
	if !o.Mode.IsValid() {
		o.Mode = SearchModeMixed
	}
	if o.K <= 0 {
		o.K = DefaultSearchK
	}
	if o.Threshold == nil {
		t := DefaultSearchThreshold
		o.Threshold = &t
	}
	if o.Limit <= 0 {
		o.Limit = DefaultSearchLimit
	}
	return o
}

// SearchResult is one ranked game returned by a search.
type SearchResult struct {
	// ID is the game identifier.
	ID string `json:"id"`

	// Title is the game title.
	Title string `json:"title"`

	// URL links to the game page.
	URL string `json:"url"`

	// Score is the presentation score in 0..100.
	Score int `json:"score"`

	// RawScore is the unscaled ranking score.
	RawScore float64 `json:"-"`

	// MatchType is "summary" when the synopsis matched, "text" otherwise.
	MatchType Facet `json:"match_type"`

	// Snippet is a short preview of the synopsis.
	Snippet string `json:"snippet"`
}

// SimilarResult is one game returned by a similarity lookup.
type SimilarResult struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
}

// RankingConfig holds the tunables of the aggregation phase.
type RankingConfig struct {
	// SummaryWeight scales the synopsis signal.
	SummaryWeight float64

	// TextWeight scales the body signal. SummaryWeight + TextWeight should equal 1.
	TextWeight float64

	// Decay is applied as Decay^i to the i-th best body score.
	Decay float64

	// Divisor compresses the decayed body sum as log(1+sum)/Divisor.
	Divisor float64
}

// DefaultRankingConfig returns the stock ranking weights.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		SummaryWeight: 0.70,
		TextWeight:    0.30,
		Decay:         0.85,
		Divisor:       5.0,
	}
}

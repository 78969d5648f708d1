package services

import (
	"math"
	"sort"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// ScoredHit is a retrieval hit resolved to its game and facet.
type ScoredHit struct {
	GameID string
	Facet  domain.Facet
	Score  float64
}

// RankedGame is one game after aggregation.
type RankedGame struct {
	GameID string

	// Score is the final weighted score.
	Score float64

	// SummarySignal is the best synopsis similarity, 0 without a synopsis hit.
	SummarySignal float64

	// TextSignal is the compressed, decayed sum of body similarities.
	TextSignal float64

	// MatchType is FacetSummary when SummarySignal > 0.
	MatchType domain.Facet
}

// RankGames groups hits by game and scores each game. Games are returned by
// descending score; ties keep the order in which games first appeared in hits.
func RankGames(hits []ScoredHit, cfg domain.RankingConfig) []RankedGame {
	type signals struct {
		summary float64
		body    []float64
	}

	order := make([]string, 0)
	byGame := make(map[string]*signals)
	for _, h := range hits {
		s, ok := byGame[h.GameID]
		if !ok {
			s = &signals{}
			byGame[h.GameID] = s
			order = append(order, h.GameID)
		}
		switch h.Facet {
		case domain.FacetSummary:
			s.summary = math.Max(s.summary, h.Score)
		default:
			s.body = append(s.body, h.Score)
		}
	}

	ranked := make([]RankedGame, 0, len(order))
	for _, id := range order {
		s := byGame[id]
		a := s.summary
		b := bodySignal(s.body, cfg.Decay, cfg.Divisor)

		match := domain.FacetText
		if a > 0 {
			match = domain.FacetSummary
		}
		ranked = append(ranked, RankedGame{
			GameID:        id,
			Score:         cfg.SummaryWeight*a + cfg.TextWeight*b,
			SummarySignal: a,
			TextSignal:    b,
			MatchType:     match,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// bodySignal is log(1 + sum(decay^i * s_i)) / divisor over scores sorted descending.
func bodySignal(scores []float64, decay, divisor float64) float64 {
	if len(scores) == 0 || divisor <= 0 {
		return 0
	}
	sorted := append([]float64(nil), scores...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	var sum float64
	weight := 1.0
	for _, s := range sorted {
		sum += weight * s
		weight *= decay
	}
	return math.Log1p(sum) / divisor
}

// DisplayScore maps a ranking score to an integer percentage in 0..100.
func DisplayScore(score float64) int {
	pct := int(score * 100)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

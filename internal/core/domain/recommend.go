package domain

import "sort"

// DefaultRecommendLimit caps result length when no limit is supplied.
const DefaultRecommendLimit = 10

// RecommendOptions tunes a recommendation query. The zero value asks for the
// default limit with no similarity floor, no mood filter and no exclusions.
type RecommendOptions struct {
	// Limit caps the number of results; values < 1 mean DefaultRecommendLimit.
	Limit int
	// MinSimilarity is the inclusive lower bound on the score.
	MinSimilarity float64
	// SameMoodOnly drops candidates whose mood differs from the reference.
	SameMoodOnly bool
	// ExcludeIDs lists record ids to drop before scoring.
	ExcludeIDs map[string]struct{}
}

// Recommendation pairs a catalog record with its similarity to the reference.
type Recommendation struct {
	Record FeatureRecord `json:"record"`
	Score  float64       `json:"score"`
}

// Recommend ranks catalog records by similarity to the reference.
//
// The reference itself (matched by id) and any excluded id are skipped.
// Results are sorted by descending score; ties keep catalog iteration order;
// scores below MinSimilarity are dropped and at most Limit entries return.
//
// An invalid candidate aborts the whole call with the scorer's validation
// error. This fail-fast policy is deliberate: a half-ranked list over a
// partially readable catalog would be silently wrong.
func Recommend(ref FeatureRecord, catalog []FeatureRecord, opts RecommendOptions) ([]Recommendation, error) {
	limit := opts.Limit
	if limit < 1 {
		limit = DefaultRecommendLimit
	}

	recs := make([]Recommendation, 0, len(catalog))
	for _, candidate := range catalog {
		if candidate.ID == ref.ID {
			continue
		}
		if _, excluded := opts.ExcludeIDs[candidate.ID]; excluded {
			continue
		}
		if opts.SameMoodOnly && candidate.Mood != ref.Mood {
			continue
		}

		score, err := Score(ref, candidate)
		if err != nil {
			return nil, err
		}
		if score < opts.MinSimilarity {
			continue
		}
		recs = append(recs, Recommendation{Record: candidate, Score: score})
	}

	// Stable so equal scores keep their catalog order.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

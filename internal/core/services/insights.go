package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/Shima-Rai/melixa/internal/core/domain"
)

const topPlayedLimit = 5

// MoodBreakdown summarizes one mood's share of the catalog.
type MoodBreakdown struct {
	Mood  domain.Mood `json:"mood"`
	Count int         `json:"count"`
	Share float64     `json:"share"`
}

// Insights is the catalog-level summary view.
type Insights struct {
	TrackCount    int                    `json:"trackCount"`
	AverageTempo  float64                `json:"averageTempo"`
	AverageEnergy float64                `json:"averageEnergy"`
	Moods         []MoodBreakdown        `json:"moods"`
	TopPlayed     []domain.FeatureRecord `json:"topPlayed"`
}

// Insights builds the summary over the whole catalog: size, per-mood counts
// and shares in canonical mood order, tempo and energy means, and the most
// played tracks.
func (c *Catalog) Insights(ctx context.Context) (Insights, error) {
	records, err := c.store.ListAll(ctx)
	if err != nil {
		return Insights{}, fmt.Errorf("service: failed to list catalog: %w", err)
	}

	out := Insights{TrackCount: len(records)}

	counts := map[domain.Mood]int{}
	var tempoSum, energySum float64
	for _, rec := range records {
		counts[rec.Mood]++
		tempoSum += rec.Tempo
		energySum += rec.Energy
	}
	if len(records) > 0 {
		out.AverageTempo = tempoSum / float64(len(records))
		out.AverageEnergy = energySum / float64(len(records))
	}

	out.Moods = make([]MoodBreakdown, 0, len(domain.Moods))
	for _, mood := range domain.Moods {
		b := MoodBreakdown{Mood: mood, Count: counts[mood]}
		if len(records) > 0 {
			b.Share = float64(b.Count) / float64(len(records))
		}
		out.Moods = append(out.Moods, b)
	}

	played := make([]domain.FeatureRecord, 0, len(records))
	for _, rec := range records {
		if rec.PlayCount > 0 {
			played = append(played, rec)
		}
	}
	sort.SliceStable(played, func(i, j int) bool {
		return played[i].PlayCount > played[j].PlayCount
	})
	if len(played) > topPlayedLimit {
		played = played[:topPlayedLimit]
	}
	out.TopPlayed = played

	return out, nil
}

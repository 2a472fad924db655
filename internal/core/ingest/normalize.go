// Package ingest maps heterogeneous extractor output into the canonical
// feature record shape.
package ingest

import (
	"fmt"

	"github.com/Shima-Rai/melixa/internal/core/domain"
	"github.com/Shima-Rai/melixa/internal/core/ports"
)

// Feature key resolution order, positional name first. Older classifier
// builds report semantic names; newer ones report the training-order
// feature_N names. When neither key is present the scalar defaults to 0.
var featureKeys = struct {
	tempo, energy, tempoVariance, energyVariance, spectralCentroid []string
}{
	tempo:            []string{"feature_0", "tempo"},
	energy:           []string{"feature_1", "energy"},
	tempoVariance:    []string{"feature_10", "tempo_variance"},
	energyVariance:   []string{"feature_11", "energy_variance"},
	spectralCentroid: []string{"feature_2", "spectral_centroid"},
}

// Analysis is the normalized view of one extractor response. Record carries
// the canonical features (id and source path are filled at persistence);
// Raw preserves the unnormalized payload because normalization is
// best-effort against a shifting schema.
type Analysis struct {
	Record          domain.FeatureRecord
	Confidence      float64
	ConfidenceLabel string
	Raw             ports.Prediction
}

// Normalize resolves the extractor payload into an Analysis.
func Normalize(raw ports.Prediction) Analysis {
	rec := domain.FeatureRecord{
		Tempo:          resolve(raw.Features, featureKeys.tempo),
		Energy:         resolve(raw.Features, featureKeys.energy),
		TempoVariance:  resolve(raw.Features, featureKeys.tempoVariance),
		EnergyVariance: resolve(raw.Features, featureKeys.energyVariance),
	}
	if v, ok := lookup(raw.Features, featureKeys.spectralCentroid); ok {
		rec.SpectralCentroid = &v
	}

	if mood, ok := domain.ParseMood(raw.Mood); ok {
		rec.Mood = mood
	} else {
		// Unknown labels pass through so the raw prediction stays visible.
		rec.Mood = domain.Mood(raw.Mood)
	}
	rec.MoodProbabilities = resolveDistribution(raw)

	confidence := deriveConfidence(raw, rec.MoodProbabilities)

	return Analysis{
		Record:          rec,
		Confidence:      confidence,
		ConfidenceLabel: fmt.Sprintf("%.2f%%", confidence*100),
		Raw:             raw,
	}
}

// resolveDistribution picks the mood distribution, preferring the
// "percentages" key over "probabilities". A missing distribution is an empty
// mapping, not an error; unknown labels are dropped. Values are kept exactly
// as reported, even when the mass does not sum to 1.
func resolveDistribution(raw ports.Prediction) map[domain.Mood]float64 {
	source := raw.Percentages
	if source == nil {
		source = raw.Probabilities
	}

	dist := make(map[domain.Mood]float64, len(source))
	for label, p := range source {
		if mood, ok := domain.ParseMood(label); ok {
			dist[mood] = p
		}
	}
	return dist
}

// deriveConfidence uses the supplied confidence when present, otherwise the
// maximum of the resolved distribution.
func deriveConfidence(raw ports.Prediction, dist map[domain.Mood]float64) float64 {
	if raw.Confidence != nil {
		return *raw.Confidence
	}
	confidence := 0.0
	for _, p := range dist {
		if p > confidence {
			confidence = p
		}
	}
	return confidence
}

func resolve(features map[string]float64, keys []string) float64 {
	v, _ := lookup(features, keys)
	return v
}

func lookup(features map[string]float64, keys []string) (float64, bool) {
	for _, key := range keys {
		if v, ok := features[key]; ok {
			return v, true
		}
	}
	return 0, false
}

package domain

import "math"

// Fixed term weights; they sum to 1.0 so the final score stays in [0,100].
const (
	weightTempo    = 0.25
	weightEnergy   = 0.25
	weightMood     = 0.30
	weightSpectral = 0.20
)

const (
	tempoScale    = 200.0  // BPM gap that zeroes the tempo term
	spectralScale = 5000.0 // centroid gap (Hz) that zeroes the spectral term

	// Neutral spectral similarity when either record lacks a centroid, so
	// absent spectral data biases toward neither similar nor dissimilar.
	spectralNeutral = 0.5

	sameMoodBase      = 0.8
	sameMoodSpan      = 0.2
	crossMoodDiscount = 0.85
)

// Score computes the feature-weighted similarity between two records on a
// 0-100 scale, rounded to one decimal place. It is pure and symmetric.
// Both records must pass Validate; the error identifies the offending record
// and field.
func Score(a, b FeatureRecord) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}

	tempo := 0.7*clamp01(1-math.Abs(a.Tempo-b.Tempo)/tempoScale) +
		0.3*clamp01(1-math.Abs(a.TempoVariance-b.TempoVariance))

	energy := 0.7*clamp01(1-math.Abs(a.Energy-b.Energy)) +
		0.3*clamp01(1-math.Abs(a.EnergyVariance-b.EnergyVariance))

	score := weightTempo*tempo +
		weightEnergy*energy +
		weightMood*moodSimilarity(a, b) +
		weightSpectral*spectralSimilarity(a, b)

	return math.Round(score*1000) / 10, nil
}

// moodSimilarity rewards agreement on the primary label and, when the labels
// disagree, the probability-mass overlap across the full distribution scaled
// down as a cross-mood penalty. The constants are tuned empirically; ranking
// order depends on them, so they are not to be adjusted casually.
func moodSimilarity(a, b FeatureRecord) float64 {
	if a.Mood == b.Mood {
		return clamp01(sameMoodBase + sameMoodSpan*math.Min(a.OwnMoodProbability(), b.OwnMoodProbability()))
	}

	overlap := 0.0
	for _, m := range Moods {
		overlap += math.Min(a.MoodProbabilities[m], b.MoodProbabilities[m])
	}
	return clamp01(crossMoodDiscount * overlap)
}

func spectralSimilarity(a, b FeatureRecord) float64 {
	if a.SpectralCentroid == nil || b.SpectralCentroid == nil {
		return spectralNeutral
	}
	return clamp01(1 - math.Abs(*a.SpectralCentroid-*b.SpectralCentroid)/spectralScale)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package ingest

import (
	"testing"

	"github.com/Shima-Rai/melixa/internal/core/domain"
	"github.com/Shima-Rai/melixa/internal/core/ports"
)

func TestNormalizeFeatureResolution(t *testing.T) {
	tests := []struct {
		name     string
		features map[string]float64
		want     domain.FeatureRecord
	}{
		{
			name: "positional names win over semantic names",
			features: map[string]float64{
				"feature_0": 128, "tempo": 90,
				"feature_1": 0.8, "energy": 0.1,
				"feature_10": 0.4, "tempo_variance": 0.9,
				"feature_11": 0.2, "energy_variance": 0.7,
			},
			want: domain.FeatureRecord{Tempo: 128, Energy: 0.8, TempoVariance: 0.4, EnergyVariance: 0.2},
		},
		{
			name: "semantic names used when positional absent",
			features: map[string]float64{
				"tempo": 90, "energy": 0.1, "tempo_variance": 0.9, "energy_variance": 0.7,
			},
			want: domain.FeatureRecord{Tempo: 90, Energy: 0.1, TempoVariance: 0.9, EnergyVariance: 0.7},
		},
		{
			name:     "missing scalars default to zero",
			features: map[string]float64{"tempo": 110},
			want:     domain.FeatureRecord{Tempo: 110},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(ports.Prediction{Features: tc.features}).Record
			if got.Tempo != tc.want.Tempo ||
				got.Energy != tc.want.Energy ||
				got.TempoVariance != tc.want.TempoVariance ||
				got.EnergyVariance != tc.want.EnergyVariance {
				t.Fatalf("normalized %+v, want %+v", got, tc.want)
			}
			if err := got.Validate(); err != nil {
				t.Fatalf("normalized record must be valid: %v", err)
			}
		})
	}
}

func TestNormalizeSpectralCentroidAbsence(t *testing.T) {
	withCentroid := Normalize(ports.Prediction{
		Features: map[string]float64{"spectral_centroid": 2100},
	}).Record
	if withCentroid.SpectralCentroid == nil || *withCentroid.SpectralCentroid != 2100 {
		t.Fatalf("spectral centroid not resolved: %+v", withCentroid.SpectralCentroid)
	}

	positional := Normalize(ports.Prediction{
		Features: map[string]float64{"feature_2": 1800, "spectral_centroid": 2100},
	}).Record
	if positional.SpectralCentroid == nil || *positional.SpectralCentroid != 1800 {
		t.Fatalf("positional centroid must win, got %+v", positional.SpectralCentroid)
	}

	absent := Normalize(ports.Prediction{Features: map[string]float64{"tempo": 100}}).Record
	if absent.SpectralCentroid != nil {
		t.Fatalf("absent centroid must stay nil, got %v", *absent.SpectralCentroid)
	}
}

func TestNormalizeMoodDistribution(t *testing.T) {
	t.Run("percentages preferred over probabilities", func(t *testing.T) {
		a := Normalize(ports.Prediction{
			Mood:          "happy",
			Percentages:   map[string]float64{"happy": 0.9, "sad": 0.1},
			Probabilities: map[string]float64{"happy": 0.2, "sad": 0.8},
		})
		if a.Record.MoodProbabilities[domain.MoodHappy] != 0.9 {
			t.Fatalf("distribution = %+v, want percentages source", a.Record.MoodProbabilities)
		}
	})

	t.Run("probabilities fallback", func(t *testing.T) {
		a := Normalize(ports.Prediction{
			Mood:          "sad",
			Probabilities: map[string]float64{"sad": 0.6, "calm": 0.4},
		})
		if a.Record.MoodProbabilities[domain.MoodSad] != 0.6 {
			t.Fatalf("distribution = %+v, want probabilities source", a.Record.MoodProbabilities)
		}
	})

	t.Run("missing distribution normalizes to empty map", func(t *testing.T) {
		a := Normalize(ports.Prediction{Mood: "calm"})
		if a.Record.MoodProbabilities == nil {
			t.Fatal("distribution must be an empty map, not nil")
		}
		if len(a.Record.MoodProbabilities) != 0 {
			t.Fatalf("distribution = %+v, want empty", a.Record.MoodProbabilities)
		}
	})

	t.Run("unknown labels dropped", func(t *testing.T) {
		a := Normalize(ports.Prediction{
			Mood:        "happy",
			Percentages: map[string]float64{"happy": 0.7, "brooding": 0.3},
		})
		if len(a.Record.MoodProbabilities) != 1 {
			t.Fatalf("distribution = %+v, want only known moods", a.Record.MoodProbabilities)
		}
	})
}

func TestNormalizeConfidence(t *testing.T) {
	supplied := 0.5
	a := Normalize(ports.Prediction{Mood: "happy", Confidence: &supplied})
	if a.Confidence != 0.5 {
		t.Fatalf("supplied confidence ignored: %v", a.Confidence)
	}
	if a.ConfidenceLabel != "50.00%" {
		t.Fatalf("label = %q, want 50.00%%", a.ConfidenceLabel)
	}

	derived := Normalize(ports.Prediction{
		Mood:          "happy",
		Probabilities: map[string]float64{"happy": 0.7342, "sad": 0.2658},
	})
	if derived.Confidence != 0.7342 {
		t.Fatalf("derived confidence = %v, want max of distribution", derived.Confidence)
	}
	if derived.ConfidenceLabel != "73.42%" {
		t.Fatalf("label = %q, want 73.42%%", derived.ConfidenceLabel)
	}

	empty := Normalize(ports.Prediction{Mood: "happy"})
	if empty.Confidence != 0 {
		t.Fatalf("confidence without distribution = %v, want 0", empty.Confidence)
	}
}

func TestNormalizeKeepsRawPayload(t *testing.T) {
	raw := ports.Prediction{
		Mood:     "energetic",
		Features: map[string]float64{"feature_0": 140},
		Raw:      []byte(`{"mood":"energetic"}`),
	}
	a := Normalize(raw)
	if string(a.Raw.Raw) != `{"mood":"energetic"}` {
		t.Fatalf("raw payload not preserved: %q", a.Raw.Raw)
	}
	if a.Record.Mood != domain.MoodEnergetic {
		t.Fatalf("mood = %q, want energetic", a.Record.Mood)
	}
}

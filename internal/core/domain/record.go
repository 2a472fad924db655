// Package domain holds the core model and pure logic of the Melixa catalog:
// feature records, mood similarity scoring, and recommendation ranking.
package domain

import (
	"fmt"
	"math"
)

// Mood is the categorical emotional classification of a clip.
type Mood string

const (
	MoodCalm      Mood = "calm"
	MoodEnergetic Mood = "energetic"
	MoodHappy     Mood = "happy"
	MoodSad       Mood = "sad"
)

// Moods lists the fixed mood set in canonical order.
var Moods = []Mood{MoodCalm, MoodEnergetic, MoodHappy, MoodSad}

// ParseMood maps a label to a known Mood.
func ParseMood(s string) (Mood, bool) {
	for _, m := range Moods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// FeatureRecord is the canonical per-asset audio descriptor.
//
// The four core scalars must be finite numbers; a NaN or infinite value marks
// the scalar as missing and makes the record invalid for persistence and
// scoring. SpectralCentroid is optional and nil is a distinct state, not zero.
// MoodProbabilities is stored exactly as reported by the classifier and is not
// renormalized even when the mass does not sum to 1.
type FeatureRecord struct {
	ID         string `json:"id"`
	SourcePath string `json:"sourcePath"`

	Tempo          float64 `json:"tempo"`
	TempoVariance  float64 `json:"tempoVariance"`
	Energy         float64 `json:"energy"`
	EnergyVariance float64 `json:"energyVariance"`

	SpectralCentroid *float64 `json:"spectralCentroid,omitempty"`

	Mood              Mood             `json:"mood"`
	MoodProbabilities map[Mood]float64 `json:"moodProbabilities"`

	PlayCount int `json:"playCount"`
}

// ValidationError reports a feature record unusable for scoring or
// persistence, naming the offending record and field.
type ValidationError struct {
	RecordID string
	Field    string
}

func (e *ValidationError) Error() string {
	id := e.RecordID
	if id == "" {
		id = "(unsaved)"
	}
	return fmt.Sprintf("domain: record %s: %s is not a number", id, e.Field)
}

// coreScalars lists the scalar fields every valid record must carry.
var coreScalars = []struct {
	name  string
	value func(*FeatureRecord) float64
}{
	{"tempo", func(r *FeatureRecord) float64 { return r.Tempo }},
	{"tempoVariance", func(r *FeatureRecord) float64 { return r.TempoVariance }},
	{"energy", func(r *FeatureRecord) float64 { return r.Energy }},
	{"energyVariance", func(r *FeatureRecord) float64 { return r.EnergyVariance }},
}

// Validate checks that all four core scalars are present as finite numbers.
func (r *FeatureRecord) Validate() error {
	for _, f := range coreScalars {
		v := f.value(r)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{RecordID: r.ID, Field: f.name}
		}
	}
	return nil
}

// OwnMoodProbability returns the probability the record assigns to its own
// mood label, 0 when the distribution lacks it.
func (r *FeatureRecord) OwnMoodProbability() float64 {
	return r.MoodProbabilities[r.Mood]
}

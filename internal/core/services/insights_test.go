package services

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Shima-Rai/melixa/internal/core/domain"
)

func TestInsights(t *testing.T) {
	store := &mockStore{records: []domain.FeatureRecord{
		{ID: "a", Mood: domain.MoodHappy, Tempo: 100, Energy: 0.4, PlayCount: 2},
		{ID: "b", Mood: domain.MoodHappy, Tempo: 140, Energy: 0.8, PlayCount: 9},
		{ID: "c", Mood: domain.MoodSad, Tempo: 60, Energy: 0.3, PlayCount: 0},
		{ID: "d", Mood: domain.MoodCalm, Tempo: 80, Energy: 0.1, PlayCount: 9},
	}}
	svc := NewCatalog(store, zerolog.Nop())

	got, err := svc.Insights(context.Background())
	if err != nil {
		t.Fatalf("Insights error: %v", err)
	}

	if got.TrackCount != 4 {
		t.Errorf("track count = %d, want 4", got.TrackCount)
	}
	if math.Abs(got.AverageTempo-95) > 1e-9 {
		t.Errorf("average tempo = %v, want 95", got.AverageTempo)
	}
	if math.Abs(got.AverageEnergy-0.4) > 1e-9 {
		t.Errorf("average energy = %v, want 0.4", got.AverageEnergy)
	}

	wantCounts := map[domain.Mood]int{
		domain.MoodCalm: 1, domain.MoodEnergetic: 0, domain.MoodHappy: 2, domain.MoodSad: 1,
	}
	if len(got.Moods) != len(domain.Moods) {
		t.Fatalf("got %d mood rows, want one per mood", len(got.Moods))
	}
	for _, b := range got.Moods {
		if b.Count != wantCounts[b.Mood] {
			t.Errorf("mood %s count = %d, want %d", b.Mood, b.Count, wantCounts[b.Mood])
		}
		if want := float64(wantCounts[b.Mood]) / 4; math.Abs(b.Share-want) > 1e-9 {
			t.Errorf("mood %s share = %v, want %v", b.Mood, b.Share, want)
		}
	}

	// Never-played tracks stay out; equal play counts keep catalog order.
	if len(got.TopPlayed) != 3 {
		t.Fatalf("top played = %d entries, want 3", len(got.TopPlayed))
	}
	wantOrder := []string{"b", "d", "a"}
	for i, id := range wantOrder {
		if got.TopPlayed[i].ID != id {
			t.Errorf("top played %d = %s, want %s", i, got.TopPlayed[i].ID, id)
		}
	}
}

func TestInsightsEmptyCatalog(t *testing.T) {
	svc := NewCatalog(&mockStore{}, zerolog.Nop())

	got, err := svc.Insights(context.Background())
	if err != nil {
		t.Fatalf("Insights error: %v", err)
	}
	if got.TrackCount != 0 || got.AverageTempo != 0 || got.AverageEnergy != 0 {
		t.Fatalf("empty catalog insights = %+v, want zeros", got)
	}
	if len(got.Moods) != len(domain.Moods) {
		t.Fatalf("mood rows = %d, want one per mood even when empty", len(got.Moods))
	}
}

package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Shima-Rai/melixa/internal/core/domain"
	"github.com/Shima-Rai/melixa/internal/core/services"
	"github.com/Shima-Rai/melixa/internal/reanalyze"
)

type stubStore struct {
	records []domain.FeatureRecord
}

func (s *stubStore) Upsert(ctx context.Context, sourcePath string, rec domain.FeatureRecord) (domain.FeatureRecord, error) {
	return rec, nil
}

func (s *stubStore) GetByID(ctx context.Context, id string) (domain.FeatureRecord, error) {
	for _, rec := range s.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.FeatureRecord{}, domain.ErrNotFound
}

func (s *stubStore) ListAll(ctx context.Context) ([]domain.FeatureRecord, error) {
	return s.records, nil
}

func (s *stubStore) IncrementPlayCount(ctx context.Context, id string) (int, error) {
	for _, rec := range s.records {
		if rec.ID == id {
			return rec.PlayCount + 1, nil
		}
	}
	return 0, domain.ErrNotFound
}

type stubReanalyzer struct {
	report reanalyze.Report
	called bool
}

func (s *stubReanalyzer) Run(ctx context.Context) (reanalyze.Report, error) {
	s.called = true
	return s.report, nil
}

func testHandler(records ...domain.FeatureRecord) (*Handler, *stubReanalyzer) {
	store := &stubStore{records: records}
	svc := services.NewCatalog(store, zerolog.Nop())
	rean := &stubReanalyzer{}
	return NewHandler(svc, rean, nil, zerolog.Nop()), rean
}

func happyRecord(id string) domain.FeatureRecord {
	return domain.FeatureRecord{
		ID: id, SourcePath: "/music/" + id + ".mp3",
		Tempo: 120, Energy: 0.6, Mood: domain.MoodHappy,
		MoodProbabilities: map[domain.Mood]float64{domain.MoodHappy: 0.8},
	}
}

func TestGetTrack(t *testing.T) {
	h, _ := testHandler(happyRecord("t1"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tracks/t1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var rec domain.FeatureRecord
	if err := json.NewDecoder(rr.Body).Decode(&rec); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rec.ID != "t1" || rec.Mood != domain.MoodHappy {
		t.Fatalf("record = %+v", rec)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tracks/ghost", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for unknown id", rr.Code)
	}
}

func TestSimilarTracksQuery(t *testing.T) {
	ref := happyRecord("ref")
	twin := happyRecord("twin")
	other := happyRecord("other")
	h, _ := testHandler(ref, twin, other)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet,
		"/api/tracks/ref/similar?limit=5&min_similarity=10&exclude=other", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Recommendations []domain.Recommendation `json:"recommendations"`
		Count           int                     `json:"count"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Count != 1 || body.Recommendations[0].Record.ID != "twin" {
		t.Fatalf("body = %+v, want only twin", body)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tracks/ref/similar?limit=zero", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for bad limit", rr.Code)
	}
}

func TestRecordPlay(t *testing.T) {
	h, _ := testHandler(happyRecord("t1"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/tracks/t1/play", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var body map[string]int
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["playCount"] != 1 {
		t.Fatalf("playCount = %d, want 1", body["playCount"])
	}
}

func TestReanalyzeEndpoint(t *testing.T) {
	h, rean := testHandler()
	rean.report = reanalyze.Report{Snapshot: reanalyze.Snapshot{Total: 3, Processed: 3, Succeeded: 2, Failed: 1}}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/reanalyze", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !rean.called {
		t.Fatal("reanalyzer was not invoked")
	}

	var report reanalyze.Report
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.Failed != 1 || report.Succeeded != 2 {
		t.Fatalf("report = %+v", report)
	}
}

func TestHealth(t *testing.T) {
	h, _ := testHandler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

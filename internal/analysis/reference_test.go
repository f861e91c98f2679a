package analysis

import (
	"context"
	"reflect"
	"testing"
	"time"

	"salesaudit-backend/internal/ingest"
)

func sampleTable() ingest.Table {
	return tableOf(
		[]string{"date", "amount", "vendor"},
		map[string]string{"date": "2025-01-01", "amount": "100", "vendor": "Acme"},
		map[string]string{"date": "2025-01-02", "amount": "200", "vendor": "Globex"},
		map[string]string{"date": "2025-01-03", "amount": "300", "vendor": "Initech"},
	)
}

func TestReferenceStrategyDeterministicWithSeed(t *testing.T) {
	ctx := context.Background()
	table := sampleTable()

	s := &ReferenceStrategy{Seed: 42}
	first, err := s.Analyze(ctx, table, "sales.csv")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	second, err := s.Analyze(ctx, table, "sales.csv")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	first.AnalyzedAt, second.AnalyzedAt = time.Time{}, time.Time{}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("seeded runs diverged:\n%+v\n%+v", first, second)
	}
}

func TestReferenceStrategyInvariants(t *testing.T) {
	ctx := context.Background()
	table := sampleTable()

	for seed := int64(1); seed <= 50; seed++ {
		s := &ReferenceStrategy{Seed: seed}
		r, err := s.Analyze(ctx, table, "sales.csv")
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}

		if r.HasAnomalies != (len(r.Anomalies) > 0) {
			t.Fatalf("seed %d: flag/list mismatch: %v with %d anomalies", seed, r.HasAnomalies, len(r.Anomalies))
		}
		if len(r.Features) != 4 {
			t.Fatalf("seed %d: expected 4 features, got %d", seed, len(r.Features))
		}
		for _, f := range r.Features {
			if f.Value < 80 || f.Value > 99 {
				t.Fatalf("seed %d: feature %s value %d out of range", seed, f.Name, f.Value)
			}
			if f.PreviousValue == nil || *f.PreviousValue < 60 || *f.PreviousValue > 79 {
				t.Fatalf("seed %d: feature %s previous value out of range", seed, f.Name)
			}
		}
		if r.Confidence < 80 || r.Confidence > 99 {
			t.Fatalf("seed %d: confidence %d out of range", seed, r.Confidence)
		}
		if !r.HasAnomalies && r.Confidence < 90 {
			t.Fatalf("seed %d: clean confidence %d below 90", seed, r.Confidence)
		}
		if len(r.Anomalies) > 4 {
			t.Fatalf("seed %d: %d anomalies", seed, len(r.Anomalies))
		}
		for _, a := range r.Anomalies {
			if a.Severity != SeverityLow && a.Severity != SeverityMedium && a.Severity != SeverityHigh {
				t.Fatalf("seed %d: unknown severity %q", seed, a.Severity)
			}
			if a.Description == "" || a.RecommendedAction == "" {
				t.Fatalf("seed %d: incomplete anomaly %+v", seed, a)
			}
		}
	}
}

func TestReferenceStrategyEmptyTableNeverFlags(t *testing.T) {
	ctx := context.Background()
	empty := tableOf([]string{"date", "amount"})

	for seed := int64(1); seed <= 20; seed++ {
		s := &ReferenceStrategy{Seed: seed}
		r, err := s.Analyze(ctx, empty, "sales.csv")
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if r.HasAnomalies || len(r.Anomalies) != 0 {
			t.Fatalf("seed %d: empty table flagged anomalies", seed)
		}
	}
}

func TestReferenceStrategyHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &ReferenceStrategy{Seed: 1, Delay: time.Minute}
	if _, err := s.Analyze(ctx, sampleTable(), "sales.csv"); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestNormalize(t *testing.T) {
	r := Normalize(Result{HasAnomalies: true})
	if r.HasAnomalies {
		t.Fatalf("empty anomaly list must clear the flag")
	}
	r = Normalize(Result{Anomalies: []Anomaly{{Description: "x", Severity: SeverityLow}}})
	if !r.HasAnomalies {
		t.Fatalf("non-empty anomaly list must set the flag")
	}
}

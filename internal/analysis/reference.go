package analysis

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"salesaudit-backend/internal/ingest"
)

// featureNames are the fixed evaluation dimensions, reported in this order.
var featureNames = []string{
	"Data Consistency",
	"Amount Validation",
	"Time Pattern Analysis",
	"Vendor Verification",
}

type anomalyKind struct {
	name     string
	describe func(row int) string
	action   string
}

var anomalyKinds = []anomalyKind{
	{
		name: "Amount Mismatch",
		describe: func(row int) string {
			return fmt.Sprintf("Amount Mismatch: transaction in row %d does not match the expected amount pattern", row)
		},
		action: "Review the transaction against the source invoice and correct the recorded amount",
	},
	{
		name: "Duplicate Transaction",
		describe: func(row int) string {
			return fmt.Sprintf("Duplicate Transaction: row %d appears to duplicate an earlier entry", row)
		},
		action: "Confirm with the vendor whether the charge was submitted twice and reverse the duplicate",
	},
	{
		name: "Unusual Time",
		describe: func(row int) string {
			return fmt.Sprintf("Unusual Time: row %d was recorded outside normal business hours", row)
		},
		action: "Verify who entered the transaction and whether off-hours processing was authorized",
	},
	{
		name: "Suspicious Vendor",
		describe: func(row int) string {
			return fmt.Sprintf("Suspicious Vendor: the vendor in row %d is not on the approved vendor list", row)
		},
		action: "Cross-check the vendor against the approved supplier registry before releasing payment",
	},
}

// ReferenceStrategy simulates an audit evaluation. It scores the fixed
// feature set, optionally flags anomalies, and sleeps Delay to model
// processing time. A nonzero Seed makes the output reproducible.
type ReferenceStrategy struct {
	Seed  int64
	Delay time.Duration
}

var _ Strategy = (*ReferenceStrategy)(nil)

func (s *ReferenceStrategy) Analyze(ctx context.Context, table ingest.Table, fileName string) (Result, error) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	seed := s.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	features := make([]Feature, 0, len(featureNames))
	for _, name := range featureNames {
		prev := 60 + rng.Intn(20)
		features = append(features, Feature{
			Name:          name,
			Value:         80 + rng.Intn(20),
			PreviousValue: &prev,
		})
	}

	anomalies := pickAnomalies(rng, len(table.Rows))

	confidence := 90 + rng.Intn(10)
	if len(anomalies) > 0 {
		confidence = 80 + rng.Intn(20)
	}

	return Normalize(Result{
		Confidence:     confidence,
		Features:       features,
		SummaryStats:   Summarize(table),
		Anomalies:      anomalies,
		SourceFileName: fileName,
		AnalyzedAt:     time.Now().UTC(),
	}), nil
}

func pickAnomalies(rng *rand.Rand, rowCount int) []Anomaly {
	if rowCount == 0 {
		return nil
	}
	count := rng.Intn(5)
	if count == 0 {
		return nil
	}
	anomalies := make([]Anomaly, 0, count)
	for i := 0; i < count; i++ {
		kind := anomalyKinds[rng.Intn(len(anomalyKinds))]
		row := 1 + rng.Intn(rowCount)
		score := 70 + rng.Intn(30)
		anomalies = append(anomalies, Anomaly{
			Description:       kind.describe(row),
			Severity:          severityFor(score),
			RecommendedAction: kind.action,
		})
	}
	return anomalies
}

func severityFor(score int) Severity {
	switch {
	case score >= 90:
		return SeverityHigh
	case score >= 80:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

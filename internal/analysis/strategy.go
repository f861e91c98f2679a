package analysis

import (
	"context"

	"salesaudit-backend/internal/ingest"
)

// Strategy produces an audit result for a loaded table. Implementations must
// honor ctx cancellation; long-running evaluation happens here.
type Strategy interface {
	Analyze(ctx context.Context, table ingest.Table, fileName string) (Result, error)
}

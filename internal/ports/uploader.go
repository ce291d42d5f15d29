package ports

import (
	"context"
	"time"
)

// Uploader ships the raw contents of one captured journal file to a backend.
// The backend owns parsing and staleness rules; a nil return confirms the
// capture may be deleted.
type Uploader interface {
	Upload(ctx context.Context, contents []byte) error
}

// Collector samples host and runtime gauges in the background.
type Collector interface {
	Start(ctx context.Context, interval time.Duration) error
	Stop()
	Snapshot() map[string]float64
}

// RejectSink receives the raw text of journal lines that failed validation.
type RejectSink interface {
	Append(line string)
}

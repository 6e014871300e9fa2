package engine

import (
	"context"

	"github.com/ruvasqm/rate-tray/common"
)

// Fetcher defines the interface for retrieving the current reading from the
// remote source
type Fetcher interface {
	// Fetch performs a single attempt against the configured endpoint.
	// Retrying is the scheduler's responsibility.
	Fetch(ctx context.Context) (common.Reading, error)

	IsInterfaceNil() bool
}

// Store defines the interface for the append-only readings history
type Store interface {
	// Append durably records a reading and returns the stored entry
	Append(ctx context.Context, reading common.Reading) (common.HistoryEntry, error)

	// Latest returns the most recent entry or nil when the history is empty
	Latest(ctx context.Context) (*common.HistoryEntry, error)

	IsInterfaceNil() bool
}

// Renderer defines the interface for rasterizing a reading into tray canvases
type Renderer interface {
	// Render is a pure function of its inputs, producing one canvas per
	// configured icon size plus a tooltip
	Render(value float64, trend common.Trend, stale bool) (*common.RenderedIcon, error)

	IsInterfaceNil() bool
}

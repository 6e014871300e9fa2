package api

import (
	"context"

	"github.com/ruvasqm/rate-tray/common"
)

// Storage defines the read-only view over the readings history the API serves
type Storage interface {
	// Latest returns the most recent entry or nil when the history is empty
	Latest(ctx context.Context) (*common.HistoryEntry, error)

	// Recent returns up to n entries, most recent first
	Recent(ctx context.Context, n int) ([]common.HistoryEntry, error)

	IsInterfaceNil() bool
}

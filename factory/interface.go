package factory

import (
	"context"

	"github.com/ruvasqm/rate-tray/common"
)

// Scheduler defines the polling engine's operations
type Scheduler interface {
	Start()
	Close()
	TriggerNow()
	Updates() <-chan common.IconUpdate
	IsInterfaceNil() bool
}

// Server defines the local history API operations
type Server interface {
	Start()
	Close() error
	IsInterfaceNil() bool
}

// Store defines the full history store surface used by the application
type Store interface {
	Append(ctx context.Context, reading common.Reading) (common.HistoryEntry, error)
	Latest(ctx context.Context) (*common.HistoryEntry, error)
	Recent(ctx context.Context, n int) ([]common.HistoryEntry, error)
	Close() error
	IsInterfaceNil() bool
}

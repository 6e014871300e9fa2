package testsCommon

import (
	"context"

	"github.com/ruvasqm/rate-tray/common"
)

// StoreStub -
type StoreStub struct {
	AppendHandler func(ctx context.Context, reading common.Reading) (common.HistoryEntry, error)
	LatestHandler func(ctx context.Context) (*common.HistoryEntry, error)
	RecentHandler func(ctx context.Context, n int) ([]common.HistoryEntry, error)
}

// Append -
func (stub *StoreStub) Append(ctx context.Context, reading common.Reading) (common.HistoryEntry, error) {
	if stub.AppendHandler != nil {
		return stub.AppendHandler(ctx, reading)
	}

	return common.HistoryEntry{}, nil
}

// Latest -
func (stub *StoreStub) Latest(ctx context.Context) (*common.HistoryEntry, error) {
	if stub.LatestHandler != nil {
		return stub.LatestHandler(ctx)
	}

	return nil, nil
}

// Recent -
func (stub *StoreStub) Recent(ctx context.Context, n int) ([]common.HistoryEntry, error) {
	if stub.RecentHandler != nil {
		return stub.RecentHandler(ctx, n)
	}

	return nil, nil
}

// IsInterfaceNil -
func (stub *StoreStub) IsInterfaceNil() bool {
	return stub == nil
}

package testsCommon

import (
	"context"

	"github.com/ruvasqm/rate-tray/common"
)

// FetcherStub -
type FetcherStub struct {
	FetchHandler func(ctx context.Context) (common.Reading, error)
}

// Fetch -
func (stub *FetcherStub) Fetch(ctx context.Context) (common.Reading, error) {
	if stub.FetchHandler != nil {
		return stub.FetchHandler(ctx)
	}

	return common.Reading{}, nil
}

// IsInterfaceNil -
func (stub *FetcherStub) IsInterfaceNil() bool {
	return stub == nil
}

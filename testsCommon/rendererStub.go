package testsCommon

import (
	"github.com/ruvasqm/rate-tray/common"
)

// RendererStub -
type RendererStub struct {
	RenderHandler func(value float64, trend common.Trend, stale bool) (*common.RenderedIcon, error)
}

// Render -
func (stub *RendererStub) Render(value float64, trend common.Trend, stale bool) (*common.RenderedIcon, error) {
	if stub.RenderHandler != nil {
		return stub.RenderHandler(value, trend, stale)
	}

	return &common.RenderedIcon{}, nil
}

// IsInterfaceNil -
func (stub *RendererStub) IsInterfaceNil() bool {
	return stub == nil
}

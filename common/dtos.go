package common

import "time"

// TrendDirection marks how the current reading compares to the previous one
type TrendDirection int

const (
	// TrendFlat means no previous reading exists or the value did not change
	TrendFlat TrendDirection = iota
	// TrendUp means the value increased since the previous reading
	TrendUp
	// TrendDown means the value decreased since the previous reading
	TrendDown
)

// String returns a human-readable direction marker
func (d TrendDirection) String() string {
	switch d {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	default:
		return "flat"
	}
}

// Reading is a single observed value, immutable once created
type Reading struct {
	Value      float64
	ObservedAt time.Time
}

// HistoryEntry is a persisted Reading plus the sequence id assigned on insert
type HistoryEntry struct {
	Seq     int64   `json:"seq"`
	Value   float64 `json:"value"`
	// ObservedAt is stored as unix seconds
	ObservedAt int64 `json:"observedAt"`
}

// Trend is derived from the current reading and the most recent stored one
type Trend struct {
	Direction TrendDirection
	Delta     float64
}

// IconVariant is one rendered canvas at a specific pixel size
type IconVariant struct {
	Size int
	// PNG holds the encoded bytes handed to the tray library
	PNG []byte
}

// RenderedIcon is the full output of one render pass, replaced wholesale
// each display cycle and never mutated in place
type RenderedIcon struct {
	Variants []IconVariant
	Tooltip  string
}

// IconUpdate is the message posted from the scheduler to the tray controller
type IconUpdate struct {
	Icon  *RenderedIcon
	Stale bool
}

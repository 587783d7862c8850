package contracts

import "time"

// SecurityID identifies a tradable instrument. Opaque to the engine;
// comparable so it can key registry and selection maps.
type SecurityID string

// String returns the raw identifier
func (s SecurityID) String() string {
	return string(s)
}

// PriceObservation is a single (timestamp, adjusted close) point.
// Timestamps are strictly increasing per security.
type PriceObservation struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// DailyBar is one candidate record in a daily batch: end-of-day adjusted
// close plus the liquidity metric used for universe ranking.
type DailyBar struct {
	Security     SecurityID `json:"security"`
	Close        float64    `json:"close"`
	DollarVolume float64    `json:"dollar_volume"`
	EndTime      time.Time  `json:"end_time"`
}

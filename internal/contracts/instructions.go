package contracts

import "time"

// WeightInstruction targets a portfolio weight for one security.
// Negative weight means a short position.
type WeightInstruction struct {
	Security SecurityID `json:"security"`
	Weight   float64    `json:"weight"`
	AsOf     time.Time  `json:"as_of"`
}

// LiquidationInstruction closes any open position in a security
type LiquidationInstruction struct {
	Security SecurityID `json:"security"`
	Reason   string     `json:"reason"`
	AsOf     time.Time  `json:"as_of"`
}

// Package indicator provides the per-security momentum state the selection
// pipeline ranks on, plus the registry that owns all indicator instances.
package indicator

import (
	"errors"
	"fmt"
	"time"

	"github.com/quantfold/ebbtide/internal/contracts"
)

var (
	// ErrNotReady is returned when a value is requested before the window
	// has filled. Hitting it is a contract violation in the caller.
	ErrNotReady = errors.New("indicator not ready")

	// ErrOutOfOrder is returned when an update's timestamp does not advance
	// past the previous one. It signals upstream data-feed corruption and
	// must not be suppressed.
	ErrOutOfOrder = errors.New("out-of-order price update")
)

// Momentum computes a rate of change over a fixed lookback window of daily
// closes: value = latest/oldest - 1. It becomes ready once lookback+1
// observations have been received (the ROC needs a close lookback periods
// back). Updates must arrive in strictly increasing timestamp order.
type Momentum struct {
	lookback int
	window   []contracts.PriceObservation // oldest first, at most lookback+1
}

// NewMomentum creates a momentum indicator with the given lookback in days
func NewMomentum(lookbackDays int) *Momentum {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	return &Momentum{
		lookback: lookbackDays,
		window:   make([]contracts.PriceObservation, 0, lookbackDays+1),
	}
}

// Update appends one observation, evicting the oldest once the window is
// full. Rejects timestamps that do not strictly advance.
func (m *Momentum) Update(ts time.Time, close float64) error {
	if n := len(m.window); n > 0 && !ts.After(m.window[n-1].Time) {
		return fmt.Errorf("%w: %s does not advance past %s",
			ErrOutOfOrder, ts.Format(time.RFC3339), m.window[n-1].Time.Format(time.RFC3339))
	}

	m.window = append(m.window, contracts.PriceObservation{Time: ts, Close: close})
	if len(m.window) > m.lookback+1 {
		m.window = m.window[1:]
	}
	return nil
}

// Ready reports whether the window holds lookback+1 observations
func (m *Momentum) Ready() bool {
	return len(m.window) == m.lookback+1
}

// Value returns the current rate of change, or ErrNotReady before the
// window has filled.
func (m *Momentum) Value() (float64, error) {
	if !m.Ready() {
		return 0, fmt.Errorf("%w: have %d of %d observations", ErrNotReady, len(m.window), m.lookback+1)
	}

	oldest := m.window[0].Close
	latest := m.window[len(m.window)-1].Close
	if oldest == 0 {
		return 0, nil
	}
	return latest/oldest - 1, nil
}

// Lookback returns the configured window length in days
func (m *Momentum) Lookback() int {
	return m.lookback
}

// Count returns the number of observations currently held
func (m *Momentum) Count() int {
	return len(m.window)
}

// LastTime returns the timestamp of the most recent observation, or the
// zero time if none has been received.
func (m *Momentum) LastTime() time.Time {
	if len(m.window) == 0 {
		return time.Time{}
	}
	return m.window[len(m.window)-1].Time
}

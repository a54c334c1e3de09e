// Package costmodel projects the operating cost of the badge, meme and blog
// content pipelines.
//
// Every figure is a pure function of the static Catalog, the ProrationPolicy
// and the caller's volume and cadence inputs. Nothing is cached or persisted.
package costmodel

import (
	"fmt"
	"strings"
)

// Cadence is how often a one-time infrastructure run is repeated.
type Cadence string

const (
	CadenceDaily   Cadence = "Daily"
	CadenceWeekly  Cadence = "Weekly"
	CadenceMonthly Cadence = "Monthly"
)

// ParseCadence accepts a cadence label in any letter case.
func ParseCadence(label string) (Cadence, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "daily":
		return CadenceDaily, nil
	case "weekly":
		return CadenceWeekly, nil
	case "monthly":
		return CadenceMonthly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCadence, label)
	}
}

// ProrationPolicy maps a cadence to the number of days a one-time
// infrastructure cost is amortized over.
type ProrationPolicy struct {
	divisors map[Cadence]int64
}

// DefaultProration returns the Daily=1, Weekly=7, Monthly=30 policy.
func DefaultProration() ProrationPolicy {
	return ProrationPolicy{
		divisors: map[Cadence]int64{
			CadenceDaily:   1,
			CadenceWeekly:  7,
			CadenceMonthly: 30,
		},
	}
}

// DivisorFor returns the amortization divisor for an exact cadence label.
func (p ProrationPolicy) DivisorFor(label string) (int64, error) {
	d, ok := p.divisors[Cadence(label)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCadence, label)
	}
	return d, nil
}

// Cadences lists the supported cadences, shortest first.
func (p ProrationPolicy) Cadences() []Cadence {
	return []Cadence{CadenceDaily, CadenceWeekly, CadenceMonthly}
}

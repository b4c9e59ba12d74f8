package entities

import "fmt"

// Tier is the rarity assigned to a winning slot.
type Tier string

const (
	TierCommon    Tier = "common"
	TierRare      Tier = "rare"
	TierLegendary Tier = "legendary"
)

// TierTable maps a rarity percentile in [0,99] to a tier. The cutoffs
// are band widths stacked from zero: [0, Common] is Common, then the
// next Rare values are Rare, then the next Legendary values are
// Legendary. The widths must sum to at most 100; any residual range
// above the legendary band falls to Common, the lowest rarity, by
// convention.
type TierTable struct {
	CommonCutoff    uint64
	RareCutoff      uint64
	LegendaryCutoff uint64
}

// DefaultTierTable is the shipped 70/25/5 split.
func DefaultTierTable() TierTable {
	return TierTable{CommonCutoff: 70, RareCutoff: 25, LegendaryCutoff: 5}
}

// Validate rejects tables whose cutoffs exceed the percentile range.
func (t TierTable) Validate() error {
	if sum := t.CommonCutoff + t.RareCutoff + t.LegendaryCutoff; sum > 100 {
		return fmt.Errorf("tier cutoffs sum to %d, must be <= 100", sum)
	}
	return nil
}

// TierFor maps a percentile in [0,99] to its tier.
func (t TierTable) TierFor(percentile uint64) Tier {
	switch {
	case percentile <= t.CommonCutoff:
		return TierCommon
	case percentile <= t.CommonCutoff+t.RareCutoff:
		return TierRare
	case percentile <= t.CommonCutoff+t.RareCutoff+t.LegendaryCutoff:
		return TierLegendary
	default:
		return TierCommon
	}
}

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"raffler/domain/entities"
	"raffler/domain/interfaces"
)

// rarityDomain tags the rarity draw so it is independent from the winner
// draw even when both hit the same randomness provider in one settlement.
const rarityDomain = "raffle:rarity:"

// prizeAssigner maps a dedicated rarity draw through a fixed tier table.
type prizeAssigner struct {
	random interfaces.RandomSource
	table  entities.TierTable
}

// NewPrizeAssigner creates a prize assigner over the given randomness
// source and tier table.
func NewPrizeAssigner(random interfaces.RandomSource, table entities.TierTable) (interfaces.PrizeAssigner, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tier table: %w", err)
	}
	return &prizeAssigner{
		random: random,
		table:  table,
	}, nil
}

// Assign draws a fresh random value under the rarity domain tag, reduces
// it to a percentile in [0,99] and maps it to a tier. The raw drawn value
// is returned alongside for archival.
func (a *prizeAssigner) Assign(ctx context.Context, roundToken uuid.UUID) (entities.Tier, uint64, error) {
	domain := append([]byte(rarityDomain), roundToken[:]...)
	value, err := a.random.Draw(ctx, domain)
	if err != nil {
		return "", 0, fmt.Errorf("rarity draw: %w", err)
	}
	return a.table.TierFor(value % 100), value, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"raffler/domain/entities"
)

// RoundRepository implements settled-round archive data access
type RoundRepository struct {
	q Queryable
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(q Queryable) *RoundRepository {
	return &RoundRepository{q: q}
}

// RecordSettlement persists a settled round's outcome
func (r *RoundRepository) RecordSettlement(ctx context.Context, s *entities.Settlement) error {
	query := `
		INSERT INTO settlements (round_token, winner, tier, entrant_count, pot, prize, fee_share, winner_draw, rarity_draw, settled_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9::numeric, $10)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		s.RoundToken,
		string(s.Winner),
		string(s.Tier),
		s.EntrantCount,
		s.Pot.String(),
		s.Prize.String(),
		s.FeeShare.String(),
		strconv.FormatUint(s.WinnerDraw, 10),
		strconv.FormatUint(s.RarityDraw, 10),
		s.SettledAt,
	).Scan(&s.ID)

	if err != nil {
		return fmt.Errorf("failed to record settlement for round %s: %w", s.RoundToken, err)
	}

	return nil
}

// GetByToken retrieves a settlement by its round token.
// Returns nil, nil when no round with that token has settled.
func (r *RoundRepository) GetByToken(ctx context.Context, token uuid.UUID) (*entities.Settlement, error) {
	query := `
		SELECT id, round_token, winner, tier, entrant_count, pot::text, prize::text, fee_share::text, winner_draw::text, rarity_draw::text, settled_at
		FROM settlements
		WHERE round_token = $1
	`

	settlement, err := scanSettlement(r.q.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement for round %s: %w", token, err)
	}

	return settlement, nil
}

// ListRecent returns the most recently settled rounds, newest first
func (r *RoundRepository) ListRecent(ctx context.Context, limit int) ([]*entities.Settlement, error) {
	query := `
		SELECT id, round_token, winner, tier, entrant_count, pot::text, prize::text, fee_share::text, winner_draw::text, rarity_draw::text, settled_at
		FROM settlements
		ORDER BY settled_at DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*entities.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

// WinCountByAccount returns how many archived rounds the account won
func (r *RoundRepository) WinCountByAccount(ctx context.Context, account entities.AccountID) (int64, error) {
	query := `SELECT COUNT(*) FROM settlements WHERE winner = $1`

	var count int64
	if err := r.q.QueryRow(ctx, query, string(account)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count wins for %s: %w", account, err)
	}

	return count, nil
}

func scanSettlement(row pgx.Row) (*entities.Settlement, error) {
	var (
		s          entities.Settlement
		winner     string
		tier       string
		pot        string
		prize      string
		feeShare   string
		winnerDraw string
		rarityDraw string
	)

	err := row.Scan(
		&s.ID,
		&s.RoundToken,
		&winner,
		&tier,
		&s.EntrantCount,
		&pot,
		&prize,
		&feeShare,
		&winnerDraw,
		&rarityDraw,
		&s.SettledAt,
	)
	if err != nil {
		return nil, err
	}

	s.Winner = entities.AccountID(winner)
	s.Tier = entities.Tier(tier)
	if s.Pot, err = entities.ParseAmount(pot); err != nil {
		return nil, err
	}
	if s.Prize, err = entities.ParseAmount(prize); err != nil {
		return nil, err
	}
	if s.FeeShare, err = entities.ParseAmount(feeShare); err != nil {
		return nil, err
	}
	if s.WinnerDraw, err = strconv.ParseUint(winnerDraw, 10, 64); err != nil {
		return nil, err
	}
	if s.RarityDraw, err = strconv.ParseUint(rarityDraw, 10, 64); err != nil {
		return nil, err
	}

	return &s, nil
}

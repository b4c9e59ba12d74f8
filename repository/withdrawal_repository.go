package repository

import (
	"context"
	"fmt"

	"raffler/domain/entities"
)

// WithdrawalRepository implements fee-withdrawal archive data access
type WithdrawalRepository struct {
	q Queryable
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(q Queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: q}
}

// Record persists a completed withdrawal
func (r *WithdrawalRepository) Record(ctx context.Context, w *entities.Withdrawal) error {
	query := `
		INSERT INTO fee_withdrawals (recipient, amount, withdrawn_at)
		VALUES ($1, $2::numeric, $3)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		string(w.Recipient),
		w.Amount.String(),
		w.WithdrawnAt,
	).Scan(&w.ID)

	if err != nil {
		return fmt.Errorf("failed to record withdrawal to %s: %w", w.Recipient, err)
	}

	return nil
}

// ListRecent returns the most recent withdrawals, newest first
func (r *WithdrawalRepository) ListRecent(ctx context.Context, limit int) ([]*entities.Withdrawal, error) {
	query := `
		SELECT id, recipient, amount::text, withdrawn_at
		FROM fee_withdrawals
		ORDER BY withdrawn_at DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []*entities.Withdrawal
	for rows.Next() {
		var (
			w         entities.Withdrawal
			recipient string
			amount    string
		)
		if err := rows.Scan(&w.ID, &recipient, &amount, &w.WithdrawnAt); err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		w.Recipient = entities.AccountID(recipient)
		if w.Amount, err = entities.ParseAmount(amount); err != nil {
			return nil, fmt.Errorf("failed to parse withdrawal amount: %w", err)
		}
		withdrawals = append(withdrawals, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate withdrawals: %w", err)
	}

	return withdrawals, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-tax/internal/rating"
)

// DB is the subset of pgxpool.Pool used by the store.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store persists applied taxation snapshots so finalized orders keep an
// auditable record of what the rating service returned.
type Store struct {
	DB DB
}

// OrderTaxation is the stored summary for one order.
type OrderTaxation struct {
	OrderID           string
	TransactionID     int64
	TransactionStatus int
	TotalTaxApplied   string
	Messages          []rating.Message
}

// SaveOrderTaxation records the full response for an order in one
// transaction: the order-level summary plus one row per line with its
// authority details as JSON. A previous snapshot for the same order is
// replaced.
func (s *Store) SaveOrderTaxation(ctx context.Context, orderID string, resp *rating.Response) error {
	if resp == nil {
		return nil
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin taxation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM order_taxation WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("clear previous taxation: %w", err)
	}

	messages, err := json.Marshal(resp.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO order_taxation (order_id, transaction_id, transaction_status, total_tax_applied, messages)
		VALUES ($1, $2, $3, $4, $5)`,
		orderID, resp.TransactionID, resp.TransactionStatus, resp.TotalTaxApplied.String(), messages)
	if err != nil {
		return fmt.Errorf("insert order taxation: %w", err)
	}

	for _, lt := range resp.LineItemTaxes {
		details, err := json.Marshal(lt.TaxDetails)
		if err != nil {
			return fmt.Errorf("encode details for line %s: %w", lt.ID, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO line_item_taxation (order_id, line_id, country_code, state_code, total_tax_applied, details)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, lt.ID, lt.CountryCode, lt.StateOrProvince, lt.TotalTaxApplied.String(), details)
		if err != nil {
			return fmt.Errorf("insert line taxation %s: %w", lt.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit taxation tx: %w", err)
	}
	return nil
}

// GetOrderTaxation loads the stored summary for an order. It returns
// pgx.ErrNoRows when no snapshot exists.
func (s *Store) GetOrderTaxation(ctx context.Context, orderID string) (*OrderTaxation, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin taxation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		out      OrderTaxation
		messages []byte
	)
	row := tx.QueryRow(ctx, `
		SELECT order_id, transaction_id, transaction_status, total_tax_applied, messages
		FROM order_taxation WHERE order_id = $1`, orderID)
	if err := row.Scan(&out.OrderID, &out.TransactionID, &out.TransactionStatus, &out.TotalTaxApplied, &messages); err != nil {
		return nil, err
	}
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &out.Messages); err != nil {
			return nil, fmt.Errorf("decode messages: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit taxation tx: %w", err)
	}
	return &out, nil
}

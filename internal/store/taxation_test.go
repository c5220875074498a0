package store

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-tax/internal/rating"
)

type recordedExec struct {
	sql  string
	args []any
}

type fakeTx struct {
	pgx.Tx

	execs      []recordedExec
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, recordedExec{sql: sql, args: args})
	return pgconn.CommandTag{}, nil
}

func (f *fakeTx) Commit(ctx context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx *fakeTx
}

func (f *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return f.tx, nil
}

func TestSaveOrderTaxationWritesAllRows(t *testing.T) {
	tx := &fakeTx{}
	s := &Store{DB: &fakeDB{tx: tx}}

	resp := &rating.Response{
		TransactionID:     40043,
		TransactionStatus: 4,
		TotalTaxApplied:   decimal.RequireFromString("1.39"),
		Messages:          []rating.Message{{Code: 0, Info: "OK"}},
		LineItemTaxes: []rating.LineItemTax{
			{ID: "1", CountryCode: "US", StateOrProvince: "AK", TotalTaxApplied: decimal.RequireFromString("0.89"),
				TaxDetails: []rating.TaxDetail{{AuthorityName: "STATE OF ALASKA", TaxName: "STATE SALES TAX", TaxApplied: decimal.RequireFromString("0.89")}}},
			{ID: "shipping:PARCEL:0", CountryCode: "US", StateOrProvince: "AK", TotalTaxApplied: decimal.RequireFromString("0.50")},
		},
	}

	require.NoError(t, s.SaveOrderTaxation(context.Background(), "order-7", resp))
	require.True(t, tx.committed)

	// delete + order insert + one insert per line
	require.Len(t, tx.execs, 4)
	require.Contains(t, tx.execs[0].sql, "DELETE FROM order_taxation")
	require.Contains(t, tx.execs[1].sql, "INSERT INTO order_taxation")
	require.Equal(t, "order-7", tx.execs[1].args[0])

	lineInserts := tx.execs[2:]
	for _, exec := range lineInserts {
		require.Contains(t, exec.sql, "INSERT INTO line_item_taxation")
		require.Equal(t, "order-7", exec.args[0])
	}
	require.Equal(t, "1", lineInserts[0].args[1])
	require.Equal(t, "shipping:PARCEL:0", lineInserts[1].args[1])

	// Details travel as JSON.
	require.True(t, strings.HasPrefix(string(lineInserts[0].args[5].([]byte)), "["))
}

func TestSaveOrderTaxationIgnoresNilResponse(t *testing.T) {
	tx := &fakeTx{}
	s := &Store{DB: &fakeDB{tx: tx}}

	require.NoError(t, s.SaveOrderTaxation(context.Background(), "order-7", nil))
	require.Empty(t, tx.execs)
}

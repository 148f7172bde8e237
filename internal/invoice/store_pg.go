package invoice

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-lims/internal/db"
	"github.com/noah-isme/backend-lims/internal/money"
)

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	DB db.TxBeginner
}

const selectBatchColumns = `SELECT id, category, title, period_start, period_end, created_at FROM invoice_batches`

func scanBatch(row pgx.Row) (Batch, error) {
	var b Batch
	err := row.Scan(&b.ID, &b.Category, &b.Title, &b.PeriodStart, &b.PeriodEnd, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrBatchNotFound
	}
	return b, err
}

// FindBatchByTitle implements Store.
func (s PGStore) FindBatchByTitle(ctx context.Context, category, title string) (Batch, error) {
	return scanBatch(s.DB.QueryRow(ctx, selectBatchColumns+` WHERE category = $1 AND title = $2`, category, title))
}

// CreateBatchIfAbsent implements Store. The unique (category, period_start)
// constraint decides the winner when two callers race.
func (s PGStore) CreateBatchIfAbsent(ctx context.Context, b Batch) (Batch, bool, error) {
	var (
		stored  Batch
		created bool
	)
	err := db.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `INSERT INTO invoice_batches (id, category, title, period_start, period_end, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (category, period_start) DO NOTHING`,
			b.ID, b.Category, b.Title, b.PeriodStart, b.PeriodEnd, b.CreatedAt)
		if err != nil {
			return err
		}
		created = tag.RowsAffected() == 1
		stored, err = scanBatch(tx.QueryRow(ctx, selectBatchColumns+` WHERE category = $1 AND period_start = $2`, b.Category, b.PeriodStart))
		return err
	})
	if err != nil {
		return Batch{}, false, err
	}
	return stored, created, nil
}

// AttachOrder implements Store. The client invoice row is locked first so
// concurrent attachments for one client recompute the total in turn.
func (s PGStore) AttachOrder(ctx context.Context, batch Batch, a Attachment) (ClientInvoice, error) {
	inv := ClientInvoice{BatchID: batch.ID, ClientID: a.ClientID}
	err := db.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO client_invoices (batch_id, client_id) VALUES ($1, $2)
ON CONFLICT (batch_id, client_id) DO UPDATE SET updated_at = now()`, batch.ID, a.ClientID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO client_invoice_orders (batch_id, client_id, request_id, total)
VALUES ($1, $2, $3, $4)
ON CONFLICT (batch_id, request_id) DO UPDATE SET total = EXCLUDED.total`, batch.ID, a.ClientID, a.OrderID, a.Total); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE analysis_requests SET invoice_batch_id = $1 WHERE id = $2`, batch.ID, a.OrderID); err != nil {
			return err
		}
		var total money.Money
		if err := tx.QueryRow(ctx, `UPDATE client_invoices ci
SET total = sums.total, updated_at = now()
FROM (SELECT COALESCE(SUM(total), 0) AS total, COUNT(*) AS orders
      FROM client_invoice_orders WHERE batch_id = $1 AND client_id = $2) sums
WHERE ci.batch_id = $1 AND ci.client_id = $2
RETURNING ci.total::text, sums.orders`, batch.ID, a.ClientID).Scan(&total, &inv.Orders); err != nil {
			return err
		}
		inv.Total = total
		return nil
	})
	if err != nil {
		return ClientInvoice{}, err
	}
	return inv, nil
}

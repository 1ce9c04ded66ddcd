package pledge

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore persists pledges in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE pledges (
//	    id TEXT PRIMARY KEY,
//	    campaign_id TEXT NOT NULL REFERENCES campaigns (id),
//	    scope TEXT NOT NULL,
//	    amount_sats BIGINT NOT NULL,
//	    invoice TEXT NOT NULL,
//	    payment_hash TEXT NOT NULL,
//	    payer_username TEXT NOT NULL DEFAULT '',
//	    payer_avatar TEXT NOT NULL DEFAULT '',
//	    status TEXT NOT NULL DEFAULT 'pending',
//	    created_at TIMESTAMPTZ NOT NULL,
//	    expires_at TIMESTAMPTZ NOT NULL,
//	    settled_at TIMESTAMPTZ
//	);
//	CREATE INDEX pledges_pending_idx ON pledges (created_at) WHERE status = 'pending';
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed pledge store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const pledgeColumns = `id, campaign_id, scope, amount_sats, invoice, payment_hash,
	payer_username, payer_avatar, status, created_at, expires_at, settled_at`

func (s *PostgresStore) Create(ctx context.Context, p Pledge) error {
	query := `
		INSERT INTO pledges (` + pledgeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.CampaignID, p.Scope, p.AmountSats, p.Invoice, p.PaymentHash,
		p.PayerUsername, p.PayerAvatar, p.Status, p.CreatedAt, p.ExpiresAt, p.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("create pledge: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Pledge, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pledgeColumns+` FROM pledges WHERE id = $1`, id)
	return scanPledge(row)
}

func (s *PostgresStore) ListPending(ctx context.Context, limit int) ([]Pledge, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pledgeColumns+`
		FROM pledges
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending pledges: %w", err)
	}
	defer rows.Close()

	var pending []Pledge
	for rows.Next() {
		p, err := scanPledge(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending pledges: %w", err)
	}
	return pending, nil
}

// MarkSettled is a conditional write: only the first caller moves the pledge
// out of pending, so duplicate settlement delivery cannot double-count.
func (s *PostgresStore) MarkSettled(ctx context.Context, id string, settledAt time.Time) (Pledge, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE pledges
		SET status = 'settled', settled_at = $1
		WHERE id = $2 AND status = 'pending'
	`, settledAt, id)
	if err != nil {
		return Pledge{}, false, fmt.Errorf("mark pledge settled: %w", err)
	}
	n, _ := res.RowsAffected()

	p, err := s.FindByID(ctx, id)
	if err != nil {
		return Pledge{}, false, err
	}
	return p, n > 0, nil
}

func (s *PostgresStore) MarkExpired(ctx context.Context, id string) (Pledge, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE pledges
		SET status = 'expired'
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return Pledge{}, false, fmt.Errorf("mark pledge expired: %w", err)
	}
	n, _ := res.RowsAffected()

	p, err := s.FindByID(ctx, id)
	if err != nil {
		return Pledge{}, false, err
	}
	return p, n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPledge(row rowScanner) (Pledge, error) {
	var p Pledge
	var settledAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.CampaignID, &p.Scope, &p.AmountSats, &p.Invoice, &p.PaymentHash,
		&p.PayerUsername, &p.PayerAvatar, &p.Status, &p.CreatedAt, &p.ExpiresAt, &settledAt,
	)
	if err == sql.ErrNoRows {
		return Pledge{}, ErrNotFound
	}
	if err != nil {
		return Pledge{}, fmt.Errorf("scan pledge: %w", err)
	}
	if settledAt.Valid {
		p.SettledAt = &settledAt.Time
	}
	return p, nil
}

package campaign

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	derrors "evento/pkg/domain-errors"
)

// PostgresStore persists campaigns and their activity feeds in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE campaigns (
//	    id TEXT PRIMARY KEY,
//	    event_id TEXT,
//	    user_id TEXT NOT NULL,
//	    scope TEXT NOT NULL,
//	    title TEXT NOT NULL,
//	    description TEXT NOT NULL DEFAULT '',
//	    goal_sats BIGINT,
//	    raised_sats BIGINT NOT NULL DEFAULT 0,
//	    pledge_count BIGINT NOT NULL DEFAULT 0,
//	    visibility TEXT NOT NULL DEFAULT 'public',
//	    status TEXT NOT NULL DEFAULT 'active',
//	    destination_address TEXT NOT NULL DEFAULT '',
//	    destination_verify_url TEXT NOT NULL DEFAULT '',
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX campaigns_event_idx ON campaigns (event_id) WHERE event_id IS NOT NULL;
//	CREATE TABLE campaign_feed (
//	    id BIGSERIAL PRIMARY KEY,
//	    campaign_id TEXT NOT NULL REFERENCES campaigns (id),
//	    amount_sats BIGINT NOT NULL,
//	    payer_avatar TEXT NOT NULL DEFAULT '',
//	    payer_username TEXT NOT NULL,
//	    settled_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

// PostgresStoreOption configures a PostgresStore.
type PostgresStoreOption func(*PostgresStore)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock func() time.Time) PostgresStoreOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgresStore constructs a PostgreSQL-backed campaign store.
func NewPostgresStore(db *sql.DB, opts ...PostgresStoreOption) *PostgresStore {
	s := &PostgresStore{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

const campaignColumns = `id, event_id, user_id, scope, title, description, goal_sats,
	raised_sats, pledge_count, visibility, status, destination_address,
	destination_verify_url, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c Campaign) error {
	query := `
		INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.EventID, c.UserID, c.Scope, c.Title, c.Description, c.GoalSats,
		c.RaisedSats, c.PledgeCount, c.Visibility, c.Status, c.DestinationAddress,
		c.DestinationVerifyURL, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Campaign, error) {
	return s.findOne(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
}

func (s *PostgresStore) FindByEvent(ctx context.Context, eventID string) (Campaign, error) {
	return s.findOne(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE scope = 'event' AND event_id = $1`, eventID)
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (Campaign, error) {
	return s.findOne(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE scope = 'profile' AND user_id = $1`, username)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (Campaign, error) {
	var c Campaign
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&c.ID, &c.EventID, &c.UserID, &c.Scope, &c.Title, &c.Description, &c.GoalSats,
		&c.RaisedSats, &c.PledgeCount, &c.Visibility, &c.Status, &c.DestinationAddress,
		&c.DestinationVerifyURL, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return Campaign{}, ErrNotFound
	}
	if err != nil {
		return Campaign{}, fmt.Errorf("find campaign: %w", err)
	}
	return c, nil
}

// ApplySettlement runs the totals update and feed insert in one transaction so
// a crash cannot leave the feed and the raised total disagreeing.
func (s *PostgresStore) ApplySettlement(ctx context.Context, campaignID string, amountSats int64, entry FeedEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settlement tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE campaigns
		SET raised_sats = raised_sats + $1,
		    pledge_count = pledge_count + 1,
		    updated_at = $2
		WHERE id = $3
	`, amountSats, s.clock(), campaignID)
	if err != nil {
		return fmt.Errorf("apply settlement totals: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO campaign_feed (campaign_id, amount_sats, payer_avatar, payer_username, settled_at)
		VALUES ($1, $2, $3, $4, $5)
	`, campaignID, entry.AmountSats, entry.PayerAvatar, entry.PayerUsername, entry.SettledAt)
	if err != nil {
		return fmt.Errorf("append feed entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settlement tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFeed(ctx context.Context, campaignID string, limit int) ([]FeedEntry, error) {
	if _, err := s.FindByID(ctx, campaignID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT amount_sats, payer_avatar, payer_username, settled_at
		FROM campaign_feed
		WHERE campaign_id = $1
		ORDER BY settled_at DESC, id DESC
		LIMIT $2
	`, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	defer rows.Close()

	var feed []FeedEntry
	for rows.Next() {
		var e FeedEntry
		if err := rows.Scan(&e.AmountSats, &e.PayerAvatar, &e.PayerUsername, &e.SettledAt); err != nil {
			return nil, fmt.Errorf("scan feed entry: %w", err)
		}
		feed = append(feed, e)
	}
	if err := rows.Err(); err != nil {
		return nil, derrors.Wrap(derrors.CodeInternal, "iterate feed", err)
	}
	return feed, nil
}

package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/subscription/entity"
)

type SubscriptionRepo struct {
	db *sqlx.DB
}

func NewSubscriptionRepo(db *sqlx.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// EnsureTable creates the subscriptions table if it does not already exist.
func (r *SubscriptionRepo) EnsureTable(ctx context.Context) error {
	const tbl = `
	CREATE TABLE IF NOT EXISTS subscriptions (
		id varchar(32) PRIMARY KEY,
		subscriber_id varchar(32) NOT NULL,
		channel_id varchar(32) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	if _, err := r.db.ExecContext(ctx, tbl); err != nil {
		return err
	}

	const idx = `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_pair ON subscriptions (subscriber_id, channel_id);
	`
	if _, err := r.db.ExecContext(ctx, idx); err != nil {
		return err
	}

	const idxChannel = `
	CREATE INDEX IF NOT EXISTS idx_subscriptions_channel ON subscriptions (channel_id);
	`
	if _, err := r.db.ExecContext(ctx, idxChannel); err != nil {
		return err
	}
	return nil
}

// Create inserts a subscription row.
func (r *SubscriptionRepo) Create(ctx context.Context, s *entity.Subscription) error {
	const q = `INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
		VALUES ($1, $2, $3, $4)`
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q, s.ID, s.SubscriberID, s.ChannelID, created)
	return err
}

// CountForChannel returns how many subscribers the channel has.
func (r *SubscriptionRepo) CountForChannel(ctx context.Context, channelID string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM subscriptions WHERE channel_id=$1`, channelID)
	return n, err
}

// CountSubscribedTo returns how many channels the user follows.
func (r *SubscriptionRepo) CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id=$1`, subscriberID)
	return n, err
}

// IsSubscribed reports whether subscriber follows channel.
func (r *SubscriptionRepo) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one,
		`SELECT 1 FROM subscriptions WHERE subscriber_id=$1 AND channel_id=$2 LIMIT 1`,
		subscriberID, channelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

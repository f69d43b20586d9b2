package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/promo-api/internal/coupon"
)

// Usage persists per-user coupon usage counters. Increment is a single
// conditional upsert so read-then-increment is atomic per (code, user) pair;
// two concurrent applies can never both slip past the limit.
type Usage struct {
	Pool *pgxpool.Pool
}

const countUsageSQL = `
SELECT count FROM coupon_usage WHERE coupon_code = $1 AND user_id = $2`

const countsForUserSQL = `
SELECT coupon_code, count FROM coupon_usage WHERE user_id = $1`

const incrementUsageSQL = `
INSERT INTO coupon_usage (coupon_code, user_id, count)
VALUES ($1, $2, 1)
ON CONFLICT (coupon_code, user_id)
DO UPDATE SET count = coupon_usage.count + 1
WHERE coupon_usage.count < $3
RETURNING count`

// Count returns the user's usage count for a coupon code; unseen pairs are 0.
func (r Usage) Count(ctx context.Context, code, userID string) (int, error) {
	if r.Pool == nil {
		return 0, errors.New("repo: pool not configured")
	}
	var count int
	err := r.Pool.QueryRow(ctx, countUsageSQL, code, userID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// CountsForUser returns all of the user's usage counters in one round trip.
func (r Usage) CountsForUser(ctx context.Context, userID string) (map[string]int, error) {
	if r.Pool == nil {
		return nil, errors.New("repo: pool not configured")
	}
	rows, err := r.Pool.Query(ctx, countsForUserSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			code  string
			count int
		)
		if err := rows.Scan(&code, &count); err != nil {
			return nil, err
		}
		counts[code] = count
	}
	return counts, rows.Err()
}

// Increment bumps the user's counter for the coupon if it is still below
// limit, returning the new count. Returns coupon.ErrUsageLimitReached when
// the counter is already exhausted.
func (r Usage) Increment(ctx context.Context, code, userID string, limit int) (int, error) {
	if r.Pool == nil {
		return 0, errors.New("repo: pool not configured")
	}
	var count int
	err := r.Pool.QueryRow(ctx, incrementUsageSQL, code, userID, limit).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The upsert's WHERE clause filtered the update: limit reached.
			return 0, coupon.ErrUsageLimitReached
		}
		return 0, err
	}
	return count, nil
}

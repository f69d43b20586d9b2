package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/promo-api/internal/coupon"
)

// Coupons persists coupon definitions in Postgres. Eligibility rules are
// stored as a JSONB document; the code column carries a unique constraint so
// duplicate codes surface as a constraint violation.
type Coupons struct {
	Pool *pgxpool.Pool
}

const insertCouponSQL = `
INSERT INTO coupons (code, description, discount_type, discount_value, max_discount_amount, start_date, end_date, usage_limit_per_user, eligibility)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const listCouponsSQL = `
SELECT code, description, discount_type, discount_value, max_discount_amount, start_date, end_date, usage_limit_per_user, eligibility
FROM coupons
ORDER BY code`

const getCouponSQL = `
SELECT code, description, discount_type, discount_value, max_discount_amount, start_date, end_date, usage_limit_per_user, eligibility
FROM coupons
WHERE code = $1`

// Insert stores a new coupon. Returns coupon.ErrDuplicateCode when the code
// is already registered.
func (r Coupons) Insert(ctx context.Context, c coupon.Coupon) error {
	if r.Pool == nil {
		return errors.New("repo: pool not configured")
	}
	rules, err := json.Marshal(c.Eligibility)
	if err != nil {
		return fmt.Errorf("marshal eligibility: %w", err)
	}
	_, err = r.Pool.Exec(ctx, insertCouponSQL,
		c.Code, c.Description, string(c.DiscountType), c.DiscountValue,
		c.MaxDiscountAmount, c.StartDate, c.EndDate, c.UsageLimitPerUser, rules,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return coupon.ErrDuplicateCode
		}
		return err
	}
	return nil
}

// List returns every stored coupon ordered by code.
func (r Coupons) List(ctx context.Context) ([]coupon.Coupon, error) {
	if r.Pool == nil {
		return nil, errors.New("repo: pool not configured")
	}
	rows, err := r.Pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []coupon.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

// Get returns the coupon with the given case-sensitive code, or
// coupon.ErrNotFound.
func (r Coupons) Get(ctx context.Context, code string) (coupon.Coupon, error) {
	if r.Pool == nil {
		return coupon.Coupon{}, errors.New("repo: pool not configured")
	}
	row := r.Pool.QueryRow(ctx, getCouponSQL, code)
	c, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.Coupon{}, coupon.ErrNotFound
		}
		return coupon.Coupon{}, err
	}
	return c, nil
}

func scanCoupon(row pgx.Row) (coupon.Coupon, error) {
	var (
		c     coupon.Coupon
		kind  string
		rules []byte
	)
	err := row.Scan(&c.Code, &c.Description, &kind, &c.DiscountValue,
		&c.MaxDiscountAmount, &c.StartDate, &c.EndDate, &c.UsageLimitPerUser, &rules)
	if err != nil {
		return coupon.Coupon{}, err
	}
	c.DiscountType = coupon.DiscountType(kind)
	if len(rules) > 0 {
		if err := json.Unmarshal(rules, &c.Eligibility); err != nil {
			return coupon.Coupon{}, fmt.Errorf("unmarshal eligibility: %w", err)
		}
	}
	return c, nil
}

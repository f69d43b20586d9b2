package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/noah-isme/promo-api/internal/coupon"
	"github.com/noah-isme/promo-api/internal/repo"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS coupons (
	code                 TEXT PRIMARY KEY,
	description          TEXT NOT NULL DEFAULT '',
	discount_type        TEXT NOT NULL,
	discount_value       DOUBLE PRECISION NOT NULL,
	max_discount_amount  DOUBLE PRECISION,
	start_date           TIMESTAMPTZ NOT NULL,
	end_date             TIMESTAMPTZ NOT NULL,
	usage_limit_per_user INT NOT NULL,
	eligibility          JSONB NOT NULL DEFAULT '{}'::jsonb
);

CREATE TABLE IF NOT EXISTS coupon_usage (
	coupon_code TEXT NOT NULL REFERENCES coupons(code),
	user_id     TEXT NOT NULL,
	count       INT NOT NULL DEFAULT 0,
	PRIMARY KEY (coupon_code, user_id)
);
`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	log.Println("Applying schema...")
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	seedCoupons(ctx, repo.Coupons{Pool: pool})

	log.Println("Seeding completed successfully!")
}

func seedCoupons(ctx context.Context, store repo.Coupons) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -1)
	end := now.AddDate(0, 3, 0)

	cap50 := 50.0
	minCart100 := 100.0
	minSpend1000 := 1000.0
	minItems3 := 3

	coupons := []coupon.Coupon{
		{
			Code:              "WELCOME10",
			Description:       "10% off your first order",
			DiscountType:      coupon.DiscountPercent,
			DiscountValue:     10,
			MaxDiscountAmount: &cap50,
			StartDate:         start,
			EndDate:           end,
			UsageLimitPerUser: 1,
			Eligibility:       coupon.Eligibility{FirstOrderOnly: true},
		},
		{
			Code:              "FLAT25",
			Description:       "Flat 25 off carts over 100",
			DiscountType:      coupon.DiscountFlat,
			DiscountValue:     25,
			StartDate:         start,
			EndDate:           end,
			UsageLimitPerUser: 3,
			Eligibility:       coupon.Eligibility{MinCartValue: &minCart100},
		},
		{
			Code:              "GOLD15",
			Description:       "15% off for gold members",
			DiscountType:      coupon.DiscountPercent,
			DiscountValue:     15,
			StartDate:         start,
			EndDate:           end,
			UsageLimitPerUser: 5,
			Eligibility: coupon.Eligibility{
				AllowedTiers:     []string{"gold", "platinum"},
				MinLifetimeSpend: &minSpend1000,
			},
		},
		{
			Code:              "BOOKWORM",
			Description:       "Flat 12 off book hauls",
			DiscountType:      coupon.DiscountFlat,
			DiscountValue:     12,
			StartDate:         start,
			EndDate:           end,
			UsageLimitPerUser: 2,
			Eligibility: coupon.Eligibility{
				ApplicableCategories: []string{"books"},
				MinItemsCount:        &minItems3,
			},
		},
	}

	log.Println("Seeding coupons...")
	for _, c := range coupons {
		if err := c.Validate(); err != nil {
			log.Fatalf("Invalid seed coupon %s: %v", c.Code, err)
		}
		if err := store.Insert(ctx, c); err != nil {
			if err == coupon.ErrDuplicateCode {
				log.Printf("Coupon %s already exists, skipping", c.Code)
				continue
			}
			log.Fatalf("Failed to insert coupon %s: %v", c.Code, err)
		}
		log.Printf("Inserted coupon %s", c.Code)
	}
}

package coupon

import (
	"testing"
	"time"
)

var selNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func activeCoupon(code string, typ DiscountType, value float64) Coupon {
	return Coupon{
		Code:              code,
		DiscountType:      typ,
		DiscountValue:     value,
		StartDate:         selNow.AddDate(0, -1, 0),
		EndDate:           selNow.AddDate(0, 1, 0),
		UsageLimitPerUser: 3,
	}
}

func TestSelectBestPrefersHigherDiscount(t *testing.T) {
	cap := 15.0
	percent := activeCoupon("PERCENT10", DiscountPercent, 10)
	percent.MaxDiscountAmount = &cap
	flat := activeCoupon("FLAT18", DiscountFlat, 18)

	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 2}}}
	result, ok := SelectBest(selNow, UserProfile{UserID: "u1"}, cart, []Coupon{percent, flat}, nil, false)
	if !ok {
		t.Fatal("expected a winner")
	}
	if result.Coupon.Code != "FLAT18" {
		t.Fatalf("expected FLAT18 (18.00 beats capped 15.00), got %s", result.Coupon.Code)
	}
	if result.ComputedDiscount != 18 {
		t.Fatalf("expected discount 18, got %v", result.ComputedDiscount)
	}
}

func TestSelectBestTieBreakEarlierEndDate(t *testing.T) {
	a := activeCoupon("ALPHA", DiscountFlat, 20)
	b := activeCoupon("BRAVO", DiscountFlat, 20)
	b.EndDate = a.EndDate.AddDate(0, 0, -5)

	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 1}}}
	result, ok := SelectBest(selNow, UserProfile{UserID: "u1"}, cart, []Coupon{a, b}, nil, false)
	if !ok {
		t.Fatal("expected a winner")
	}
	if result.Coupon.Code != "BRAVO" {
		t.Fatalf("expected BRAVO (earlier end date) to win the tie, got %s", result.Coupon.Code)
	}
}

func TestSelectBestTieBreakCode(t *testing.T) {
	a := activeCoupon("ZETA", DiscountFlat, 20)
	b := activeCoupon("ALPHA", DiscountFlat, 20)

	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 1}}}
	result, ok := SelectBest(selNow, UserProfile{UserID: "u1"}, cart, []Coupon{a, b}, nil, false)
	if !ok {
		t.Fatal("expected a winner")
	}
	if result.Coupon.Code != "ALPHA" {
		t.Fatalf("expected ALPHA (smaller code) to win the tie, got %s", result.Coupon.Code)
	}
}

func TestSelectBestOrderIndependent(t *testing.T) {
	coupons := []Coupon{
		activeCoupon("CHARLIE", DiscountFlat, 20),
		activeCoupon("ALPHA", DiscountFlat, 20),
		activeCoupon("BRAVO", DiscountPercent, 10),
	}
	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 1}}}
	user := UserProfile{UserID: "u1"}

	first, ok := SelectBest(selNow, user, cart, coupons, nil, false)
	if !ok {
		t.Fatal("expected a winner")
	}

	reversed := []Coupon{coupons[2], coupons[1], coupons[0]}
	second, ok := SelectBest(selNow, user, cart, reversed, nil, false)
	if !ok {
		t.Fatal("expected a winner on reversed input")
	}
	if first.Coupon.Code != second.Coupon.Code {
		t.Fatalf("winner depends on input order: %s vs %s", first.Coupon.Code, second.Coupon.Code)
	}
	if first.Coupon.Code != "ALPHA" {
		t.Fatalf("expected ALPHA, got %s", first.Coupon.Code)
	}
}

func TestSelectBestSkipsExhaustedUsage(t *testing.T) {
	big := activeCoupon("BIG", DiscountFlat, 50)
	big.UsageLimitPerUser = 1
	small := activeCoupon("SMALL", DiscountFlat, 5)

	usage := func(code, _ string) int {
		if code == "BIG" {
			return 1
		}
		return 0
	}
	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 1}}}
	result, ok := SelectBest(selNow, UserProfile{UserID: "u1"}, cart, []Coupon{big, small}, usage, false)
	if !ok {
		t.Fatal("expected a winner")
	}
	if result.Coupon.Code != "SMALL" {
		t.Fatalf("expected exhausted BIG to be skipped, got %s", result.Coupon.Code)
	}
}

func TestSelectBestSkipsOutsideWindow(t *testing.T) {
	expired := activeCoupon("EXPIRED", DiscountFlat, 50)
	expired.EndDate = selNow.Add(-time.Hour)
	upcoming := activeCoupon("SOON", DiscountFlat, 40)
	upcoming.StartDate = selNow.Add(time.Hour)

	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 1}}}
	if _, ok := SelectBest(selNow, UserProfile{UserID: "u1"}, cart, []Coupon{expired, upcoming}, nil, false); ok {
		t.Fatal("expected no winner outside validity windows")
	}
}

func TestSelectBestSkipsIneligible(t *testing.T) {
	gold := activeCoupon("GOLD50", DiscountFlat, 50)
	gold.Eligibility = Eligibility{AllowedTiers: []string{"gold"}}

	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 1}}}
	if _, ok := SelectBest(selNow, UserProfile{UserID: "u1", Tier: "bronze"}, cart, []Coupon{gold}, nil, false); ok {
		t.Fatal("expected no winner for ineligible user")
	}
}

func TestSelectBestNoCoupons(t *testing.T) {
	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 1}}}
	if _, ok := SelectBest(selNow, UserProfile{UserID: "u1"}, cart, nil, nil, false); ok {
		t.Fatal("expected no winner with no coupons")
	}
}

func TestSelectBestRejectsZeroDiscount(t *testing.T) {
	tiny := activeCoupon("TINY", DiscountPercent, 0.001)
	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 1, Quantity: 1}}}
	// 0.001% of 1.00 rounds to 0.00 and must not win.
	if _, ok := SelectBest(selNow, UserProfile{UserID: "u1"}, cart, []Coupon{tiny}, nil, false); ok {
		t.Fatal("expected zero rounded discount to be rejected")
	}
}

func TestSelectBestProjection(t *testing.T) {
	c := activeCoupon("PROJ", DiscountFlat, 10)
	c.UsageLimitPerUser = 5
	usage := func(string, string) int { return 2 }

	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 1}}}
	result, ok := SelectBest(selNow, UserProfile{UserID: "u1"}, cart, []Coupon{c}, usage, true)
	if !ok {
		t.Fatal("expected a winner")
	}
	if result.ProjectedUsageForUser == nil || *result.ProjectedUsageForUser != 3 {
		t.Fatalf("expected projected usage 3, got %v", result.ProjectedUsageForUser)
	}
	if result.UsageLimitPerUser == nil || *result.UsageLimitPerUser != 5 {
		t.Fatalf("expected usage limit 5, got %v", result.UsageLimitPerUser)
	}
}

func TestSelectBestNoProjectionByDefault(t *testing.T) {
	c := activeCoupon("PLAIN", DiscountFlat, 10)
	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 1}}}
	result, ok := SelectBest(selNow, UserProfile{UserID: "u1"}, cart, []Coupon{c}, nil, false)
	if !ok {
		t.Fatal("expected a winner")
	}
	if result.ProjectedUsageForUser != nil || result.UsageLimitPerUser != nil {
		t.Fatal("expected projection fields to stay nil when not requested")
	}
}

package coupon

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

type stubStore struct {
	coupons map[string]Coupon
	listErr error
}

func newStubStore(coupons ...Coupon) *stubStore {
	s := &stubStore{coupons: make(map[string]Coupon)}
	for _, c := range coupons {
		s.coupons[c.Code] = c
	}
	return s
}

func (s *stubStore) Insert(_ context.Context, c Coupon) error {
	if _, exists := s.coupons[c.Code]; exists {
		return ErrDuplicateCode
	}
	s.coupons[c.Code] = c
	return nil
}

func (s *stubStore) List(_ context.Context) ([]Coupon, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Coupon, 0, len(s.coupons))
	for _, c := range s.coupons {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *stubStore) Get(_ context.Context, code string) (Coupon, error) {
	c, ok := s.coupons[code]
	if !ok {
		return Coupon{}, ErrNotFound
	}
	return c, nil
}

type stubUsage struct {
	counts map[string]map[string]int
}

func newStubUsage() *stubUsage {
	return &stubUsage{counts: make(map[string]map[string]int)}
}

func (s *stubUsage) Count(_ context.Context, code, userID string) (int, error) {
	return s.counts[userID][code], nil
}

func (s *stubUsage) CountsForUser(_ context.Context, userID string) (map[string]int, error) {
	out := make(map[string]int, len(s.counts[userID]))
	for code, n := range s.counts[userID] {
		out[code] = n
	}
	return out, nil
}

func (s *stubUsage) Increment(_ context.Context, code, userID string, limit int) (int, error) {
	if s.counts[userID] == nil {
		s.counts[userID] = make(map[string]int)
	}
	if s.counts[userID][code] >= limit {
		return 0, ErrUsageLimitReached
	}
	s.counts[userID][code]++
	return s.counts[userID][code], nil
}

func testService(coupons ...Coupon) (*Service, *stubUsage) {
	usage := newStubUsage()
	svc := &Service{
		Store: newStubStore(coupons...),
		Usage: usage,
		Now:   func() time.Time { return selNow },
	}
	return svc, usage
}

func TestServiceBestPicksWinner(t *testing.T) {
	svc, _ := testService(
		activeCoupon("FLAT18", DiscountFlat, 18),
		activeCoupon("FLAT5", DiscountFlat, 5),
	)
	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 2}}}
	result, err := svc.Best(context.Background(), UserProfile{UserID: "u1"}, cart, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || result.Coupon.Code != "FLAT18" {
		t.Fatalf("expected FLAT18, got %+v", result)
	}
}

func TestServiceBestNoWinner(t *testing.T) {
	gold := activeCoupon("GOLD", DiscountFlat, 10)
	gold.Eligibility = Eligibility{AllowedTiers: []string{"gold"}}
	svc, _ := testService(gold)

	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 1}}}
	result, err := svc.Best(context.Background(), UserProfile{UserID: "u1", Tier: "bronze"}, cart, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil result, got %+v", result)
	}
}

func TestServiceBestRespectsUsage(t *testing.T) {
	c := activeCoupon("ONCE", DiscountFlat, 10)
	c.UsageLimitPerUser = 1
	svc, usage := testService(c)
	usage.counts["u1"] = map[string]int{"ONCE": 1}

	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 1}}}
	result, err := svc.Best(context.Background(), UserProfile{UserID: "u1"}, cart, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatal("expected exhausted coupon to be excluded")
	}

	fresh, err := svc.Best(context.Background(), UserProfile{UserID: "u2"}, cart, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh == nil || fresh.Coupon.Code != "ONCE" {
		t.Fatalf("expected ONCE available for a different user, got %+v", fresh)
	}
}

func TestServiceBestRejectsInvalidInput(t *testing.T) {
	svc, _ := testService(activeCoupon("OK", DiscountFlat, 10))
	cart := Cart{Items: []CartItem{{Category: "books", UnitPrice: 100, Quantity: 1}}}

	if _, err := svc.Best(context.Background(), UserProfile{}, cart, false); err == nil {
		t.Fatal("expected missing userId to be rejected")
	}
	if _, err := svc.Best(context.Background(), UserProfile{UserID: "u1"}, Cart{}, false); err == nil {
		t.Fatal("expected empty cart to be rejected")
	}
}

func TestServiceCreateDuplicate(t *testing.T) {
	existing := activeCoupon("DUP", DiscountFlat, 10)
	svc, _ := testService(existing)

	if err := svc.Create(context.Background(), existing); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestServiceCreateInvalid(t *testing.T) {
	svc, _ := testService()
	bad := activeCoupon("BAD", DiscountFlat, 10)
	bad.EndDate = bad.StartDate
	if err := svc.Create(context.Background(), bad); err == nil {
		t.Fatal("expected invalid coupon to be rejected")
	}
}

func TestServiceApply(t *testing.T) {
	c := activeCoupon("APPLY", DiscountFlat, 10)
	c.UsageLimitPerUser = 2
	svc, _ := testService(c)

	first, err := svc.Apply(context.Background(), "APPLY", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.NewUsage != 1 || first.Limit != 2 {
		t.Fatalf("expected usage 1/2, got %d/%d", first.NewUsage, first.Limit)
	}

	second, err := svc.Apply(context.Background(), "APPLY", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.NewUsage != 2 {
		t.Fatalf("expected usage 2, got %d", second.NewUsage)
	}

	if _, err := svc.Apply(context.Background(), "APPLY", "u1"); !errors.Is(err, ErrUsageLimitReached) {
		t.Fatalf("expected ErrUsageLimitReached, got %v", err)
	}
}

func TestServiceApplyUnknownCode(t *testing.T) {
	svc, _ := testService()
	if _, err := svc.Apply(context.Background(), "NOPE", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

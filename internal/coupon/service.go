package coupon

import (
	"context"
	"errors"
	"time"
)

// Store captures the coupon persistence methods required by the service.
type Store interface {
	Insert(ctx context.Context, c Coupon) error
	List(ctx context.Context) ([]Coupon, error)
	Get(ctx context.Context, code string) (Coupon, error)
}

// UsageStore captures the per-user usage counter methods required by the
// service. Increment must be atomic per (code, userID) pair relative to
// concurrent callers.
type UsageStore interface {
	Count(ctx context.Context, code, userID string) (int, error)
	CountsForUser(ctx context.Context, userID string) (map[string]int, error)
	Increment(ctx context.Context, code, userID string, limit int) (int, error)
}

// Service orchestrates coupon storage, the selection engine, and usage
// accounting. The selection path never mutates usage state.
type Service struct {
	Store Store
	Usage UsageStore
	Cache *Cache
	Now   func() time.Time
}

// ApplyResult reports the usage state after a successful apply.
type ApplyResult struct {
	Code     string `json:"code"`
	UserID   string `json:"userId"`
	NewUsage int    `json:"newUsage"`
	Limit    int    `json:"limit"`
}

// Create validates and persists a new coupon, then drops the cached snapshot.
func (s *Service) Create(ctx context.Context, c Coupon) error {
	if s == nil || s.Store == nil {
		return errors.New("coupon service not configured")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.Store.Insert(ctx, c); err != nil {
		return err
	}
	_ = s.Cache.Invalidate(ctx)
	return nil
}

// List returns all known coupons.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("coupon service not configured")
	}
	return s.snapshot(ctx)
}

// Best evaluates every known coupon for the user and cart and returns the
// winner, or nil when none qualifies.
func (s *Service) Best(ctx context.Context, user UserProfile, cart Cart, wantProjection bool) (*SelectionResult, error) {
	if s == nil || s.Store == nil || s.Usage == nil {
		return nil, errors.New("coupon service not configured")
	}
	if err := ValidateUser(user); err != nil {
		return nil, err
	}
	if err := ValidateCart(cart); err != nil {
		return nil, err
	}
	coupons, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	// One round trip for all of the user's counters; the engine then reads
	// from the in-memory map so the evaluation sees a consistent snapshot.
	counts, err := s.Usage.CountsForUser(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	lookup := func(code, _ string) int { return counts[code] }

	result, ok := SelectBest(s.now(), user, cart, coupons, lookup, wantProjection)
	if !ok {
		return nil, nil
	}
	return &result, nil
}

// Apply atomically increments the user's usage counter for the coupon,
// enforcing the per-user limit. Returns ErrNotFound for unknown codes and
// ErrUsageLimitReached when the counter is exhausted.
func (s *Service) Apply(ctx context.Context, code, userID string) (ApplyResult, error) {
	if s == nil || s.Store == nil || s.Usage == nil {
		return ApplyResult{}, errors.New("coupon service not configured")
	}
	c, err := s.Store.Get(ctx, code)
	if err != nil {
		return ApplyResult{}, err
	}
	newCount, err := s.Usage.Increment(ctx, code, userID, c.UsageLimitPerUser)
	if err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{Code: code, UserID: userID, NewUsage: newCount, Limit: c.UsageLimitPerUser}, nil
}

func (s *Service) snapshot(ctx context.Context) ([]Coupon, error) {
	if coupons, ok, err := s.Cache.GetSnapshot(ctx); err == nil && ok {
		return coupons, nil
	}
	coupons, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.SetSnapshot(ctx, coupons)
	return coupons, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

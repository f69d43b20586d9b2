package coupon

import (
	"sort"
	"time"
)

// UsageLookup reports how many times the given user has applied the given
// coupon code. Unknown pairs return 0. The selector only reads usage state.
type UsageLookup func(code, userID string) int

// SelectionResult pairs the winning coupon with its rounded discount. The
// projection fields are populated only when requested.
type SelectionResult struct {
	Coupon                Coupon  `json:"coupon"`
	ComputedDiscount      float64 `json:"computedDiscount"`
	ProjectedUsageForUser *int    `json:"projectedUsageForUser,omitempty"`
	UsageLimitPerUser     *int    `json:"usageLimitPerUser,omitempty"`
}

type candidate struct {
	coupon   Coupon
	discount float64
}

// SelectBest picks the single most advantageous coupon for the user and cart
// at the given instant. A coupon survives when it is inside its validity
// window (inclusive bounds), the user is below its per-user usage limit, its
// eligibility rules pass, and its rounded discount is positive. Among
// survivors the winner is chosen by highest rounded discount, then earliest
// end date, then lexicographically smallest code, so identical inputs always
// yield the identical winner regardless of the order coupons arrive in.
//
// The second return value is false when no coupon qualifies.
func SelectBest(now time.Time, user UserProfile, cart Cart, coupons []Coupon, usage UsageLookup, wantProjection bool) (SelectionResult, bool) {
	candidates := make([]candidate, 0, len(coupons))
	for _, c := range coupons {
		if !c.WithinWindow(now) {
			continue
		}
		if usage != nil && usage(c.Code, user.UserID) >= c.UsageLimitPerUser {
			continue
		}
		if !IsEligible(c.Eligibility, user, cart) {
			continue
		}
		discount := RoundCents(ComputeDiscount(c, cart))
		if discount <= 0 {
			continue
		}
		candidates = append(candidates, candidate{coupon: c, discount: discount})
	}
	if len(candidates) == 0 {
		return SelectionResult{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.discount != b.discount {
			return a.discount > b.discount
		}
		if !a.coupon.EndDate.Equal(b.coupon.EndDate) {
			return a.coupon.EndDate.Before(b.coupon.EndDate)
		}
		return a.coupon.Code < b.coupon.Code
	})

	top := candidates[0]
	result := SelectionResult{Coupon: top.coupon, ComputedDiscount: top.discount}
	if wantProjection {
		current := 0
		if usage != nil {
			current = usage(top.coupon.Code, user.UserID)
		}
		projected := current + 1
		limit := top.coupon.UsageLimitPerUser
		result.ProjectedUsageForUser = &projected
		result.UsageLimitPerUser = &limit
	}
	return result, true
}

package coupon

import (
	"errors"
	"math"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no coupon exists for the requested code.
	ErrNotFound = errors.New("coupon not found")
	// ErrDuplicateCode is returned when a coupon code is already registered.
	ErrDuplicateCode = errors.New("coupon code already exists")
	// ErrUsageLimitReached indicates the caller has exhausted the per-user allowance.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
)

// DiscountType enumerates the supported discount kinds.
type DiscountType string

const (
	// DiscountFlat subtracts a fixed amount from the cart total.
	DiscountFlat DiscountType = "FLAT"
	// DiscountPercent subtracts a percentage of the cart total, optionally capped.
	DiscountPercent DiscountType = "PERCENT"
)

// Valid reports whether the discount type is one of the supported kinds.
func (d DiscountType) Valid() bool {
	return d == DiscountFlat || d == DiscountPercent
}

// CartItem is a single cart line used for evaluation.
type CartItem struct {
	ProductID string  `json:"productId"`
	Category  string  `json:"category"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// Cart is an immutable snapshot of the shopper's cart.
type Cart struct {
	Items []CartItem `json:"items"`
}

// TotalValue returns the raw (unrounded) sum of unit price times quantity.
func (c Cart) TotalValue() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.UnitPrice * float64(it.Quantity)
	}
	return total
}

// TotalItems returns the sum of line quantities.
func (c Cart) TotalItems() int {
	var count int
	for _, it := range c.Items {
		count += it.Quantity
	}
	return count
}

// categorySet builds the cart's distinct category set, uppercase-normalised.
// Built once per evaluation so every category rule compares against the same set.
func (c Cart) categorySet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Items))
	for _, it := range c.Items {
		set[strings.ToUpper(it.Category)] = struct{}{}
	}
	return set
}

// UserProfile describes the shopper being evaluated. Tier and Country are
// optional; an empty string means "not set".
type UserProfile struct {
	UserID        string  `json:"userId"`
	Tier          string  `json:"userTier,omitempty"`
	Country       string  `json:"country,omitempty"`
	LifetimeSpend float64 `json:"lifetimeSpend"`
	OrdersPlaced  int     `json:"ordersPlaced"`
}

// Eligibility holds the optional constraints attached to a coupon. Every nil
// or empty field imposes no constraint; every present field is an independent
// necessary condition.
type Eligibility struct {
	AllowedTiers         []string `json:"allowedUserTiers,omitempty"`
	MinLifetimeSpend     *float64 `json:"minLifetimeSpend,omitempty"`
	MinOrdersPlaced      *int     `json:"minOrdersPlaced,omitempty"`
	FirstOrderOnly       bool     `json:"firstOrderOnly,omitempty"`
	AllowedCountries     []string `json:"allowedCountries,omitempty"`
	MinCartValue         *float64 `json:"minCartValue,omitempty"`
	ApplicableCategories []string `json:"applicableCategories,omitempty"`
	ExcludedCategories   []string `json:"excludedCategories,omitempty"`
	MinItemsCount        *int     `json:"minItemsCount,omitempty"`
}

// Coupon is a promotional rule bundle identified by a case-sensitive code.
type Coupon struct {
	Code              string       `json:"code"`
	Description       string       `json:"description,omitempty"`
	DiscountType      DiscountType `json:"discountType"`
	DiscountValue     float64      `json:"discountValue"`
	MaxDiscountAmount *float64     `json:"maxDiscountAmount,omitempty"`
	StartDate         time.Time    `json:"startDate"`
	EndDate           time.Time    `json:"endDate"`
	UsageLimitPerUser int          `json:"usageLimitPerUser"`
	Eligibility       Eligibility  `json:"eligibility"`
}

// WithinWindow reports whether now falls inside [StartDate, EndDate].
// Both bounds are inclusive.
func (c Coupon) WithinWindow(now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// IsEligible evaluates the coupon's eligibility rules against a user and cart.
// Checks are a fixed conjunction; the first failing rule short-circuits.
// Tier, country, and category comparisons are case-insensitive. Coupon codes
// stay case-sensitive elsewhere; the asymmetry is intentional.
func IsEligible(rules Eligibility, user UserProfile, cart Cart) bool {
	if len(rules.AllowedTiers) > 0 && !containsFold(rules.AllowedTiers, user.Tier) {
		return false
	}
	if len(rules.AllowedCountries) > 0 && !containsFold(rules.AllowedCountries, user.Country) {
		return false
	}
	if rules.FirstOrderOnly && user.OrdersPlaced != 0 {
		return false
	}
	if rules.MinOrdersPlaced != nil && user.OrdersPlaced < *rules.MinOrdersPlaced {
		return false
	}
	if rules.MinLifetimeSpend != nil && user.LifetimeSpend < *rules.MinLifetimeSpend {
		return false
	}
	// Eligibility thresholds compare against the raw cart total; rounding
	// happens only on the final discount amount.
	if rules.MinCartValue != nil && cart.TotalValue() < *rules.MinCartValue {
		return false
	}
	if rules.MinItemsCount != nil && cart.TotalItems() < *rules.MinItemsCount {
		return false
	}
	if len(rules.ApplicableCategories) > 0 || len(rules.ExcludedCategories) > 0 {
		cats := cart.categorySet()
		if len(rules.ApplicableCategories) > 0 && !intersects(cats, rules.ApplicableCategories) {
			return false
		}
		if len(rules.ExcludedCategories) > 0 && intersects(cats, rules.ExcludedCategories) {
			return false
		}
	}
	return true
}

// ComputeDiscount calculates the raw monetary discount for the coupon against
// the cart. FLAT discounts ignore cart composition; PERCENT discounts apply
// the optional cap. The result is clamped to [0, cart total] and left
// unrounded; callers round at the point of comparison.
func ComputeDiscount(c Coupon, cart Cart) float64 {
	cartTotal := cart.TotalValue()
	var discount float64
	switch c.DiscountType {
	case DiscountFlat:
		discount = c.DiscountValue
	case DiscountPercent:
		discount = cartTotal * (c.DiscountValue / 100)
		if c.MaxDiscountAmount != nil && discount > *c.MaxDiscountAmount {
			discount = *c.MaxDiscountAmount
		}
	default:
		return 0
	}
	if discount > cartTotal {
		discount = cartTotal
	}
	if discount < 0 {
		return 0
	}
	return discount
}

// RoundCents rounds a monetary amount to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func containsFold(values []string, candidate string) bool {
	if candidate == "" {
		return false
	}
	for _, v := range values {
		if strings.EqualFold(v, candidate) {
			return true
		}
	}
	return false
}

func intersects(set map[string]struct{}, values []string) bool {
	for _, v := range values {
		if _, ok := set[strings.ToUpper(v)]; ok {
			return true
		}
	}
	return false
}

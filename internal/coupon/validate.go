package coupon

import (
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// couponRules mirrors Coupon with validation tags for the invariants that can
// be expressed declaratively. Cross-field invariants are checked in Validate.
type couponRules struct {
	Code              string   `validate:"required,min=1,max=64"`
	DiscountType      string   `validate:"required,oneof=FLAT PERCENT"`
	DiscountValue     float64  `validate:"required,gt=0"`
	MaxDiscountAmount *float64 `validate:"omitempty,gt=0"`
	UsageLimitPerUser int      `validate:"required,gte=1"`
	MinLifetimeSpend  *float64 `validate:"omitempty,gte=0"`
	MinOrdersPlaced   *int     `validate:"omitempty,gte=0"`
	MinCartValue      *float64 `validate:"omitempty,gte=0"`
	MinItemsCount     *int     `validate:"omitempty,gte=0"`
}

// Validate enforces the construction-time invariants on a coupon. Malformed
// coupons are rejected here so the evaluation functions can assume well-formed
// input.
func (c Coupon) Validate() error {
	rules := couponRules{
		Code:              c.Code,
		DiscountType:      string(c.DiscountType),
		DiscountValue:     c.DiscountValue,
		MaxDiscountAmount: c.MaxDiscountAmount,
		UsageLimitPerUser: c.UsageLimitPerUser,
		MinLifetimeSpend:  c.Eligibility.MinLifetimeSpend,
		MinOrdersPlaced:   c.Eligibility.MinOrdersPlaced,
		MinCartValue:      c.Eligibility.MinCartValue,
		MinItemsCount:     c.Eligibility.MinItemsCount,
	}
	if err := validate.Struct(rules); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return err
		}
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			f := fields[0]
			return fmt.Errorf("coupon: invalid %s (%s)", f.Field(), f.Tag())
		}
		return err
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return errors.New("coupon: startDate and endDate are required")
	}
	if !c.EndDate.After(c.StartDate) {
		return errors.New("coupon: endDate must be after startDate")
	}
	return nil
}

// ValidateCart enforces the cart invariants: non-negative unit prices and
// positive integer quantities.
func ValidateCart(cart Cart) error {
	if len(cart.Items) == 0 {
		return errors.New("cart: at least one item is required")
	}
	for i, it := range cart.Items {
		if it.UnitPrice < 0 {
			return fmt.Errorf("cart: item %d has negative unit price", i)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("cart: item %d has non-positive quantity", i)
		}
	}
	return nil
}

// ValidateUser enforces the user profile invariants.
func ValidateUser(user UserProfile) error {
	if user.UserID == "" {
		return errors.New("user: userId is required")
	}
	if user.LifetimeSpend < 0 {
		return errors.New("user: lifetimeSpend must be non-negative")
	}
	if user.OrdersPlaced < 0 {
		return errors.New("user: ordersPlaced must be non-negative")
	}
	return nil
}

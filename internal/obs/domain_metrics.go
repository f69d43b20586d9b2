package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SelectionTotal counts best-coupon evaluations by outcome.
	SelectionTotal *prometheus.CounterVec
	// SelectionDiscount records the distribution of computed discounts for winning coupons.
	SelectionDiscount prometheus.Histogram
	// CouponApplyTotal counts coupon apply attempts by outcome.
	CouponApplyTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SelectionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_selection_total",
			Help:      "Count of best-coupon selections by outcome.",
		}, []string{"result"})
		SelectionDiscount = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "coupon_selection_discount",
			Help:      "Computed discount amounts for winning coupons.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		})
		CouponApplyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_apply_total",
			Help:      "Count of coupon apply attempts by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, SelectionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SelectionTotal = v
			}
		})
		mustRegisterCollector(reg, SelectionDiscount, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				SelectionDiscount = v
			}
		})
		mustRegisterCollector(reg, CouponApplyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponApplyTotal = v
			}
		})
	})
}

// ObserveSelection records a selection outcome and, for winners, the discount.
func ObserveSelection(result string, discount float64) {
	if SelectionTotal != nil {
		SelectionTotal.WithLabelValues(result).Inc()
	}
	if result == "winner" && SelectionDiscount != nil {
		SelectionDiscount.Observe(discount)
	}
}

// CountApply records a coupon apply outcome.
func CountApply(result string) {
	if CouponApplyTotal != nil {
		CouponApplyTotal.WithLabelValues(result).Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}

package coupon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/promo-api/internal/common"
	"github.com/noah-isme/promo-api/internal/obs"
)

// Handler exposes the coupon HTTP endpoints.
type Handler struct {
	Svc *Service
}

type bestCouponRequest struct {
	User                UserProfile `json:"user"`
	Cart                Cart        `json:"cart"`
	EvaluateUsageImpact bool        `json:"evaluateUsageImpact"`
}

type applyRequest struct {
	UserID string `json:"userId"`
}

// Create handles POST /api/v1/coupons.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	var payload Coupon
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.Create(r.Context(), payload); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": payload})
}

// List handles GET /api/v1/coupons.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	coupons, err := h.Svc.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list coupons", nil)
		return
	}
	if coupons == nil {
		coupons = []Coupon{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": coupons})
}

// Best handles POST /api/v1/best-coupon. A request with no qualifying coupon
// is a normal 200 with a null bestCoupon, not an error.
func (h *Handler) Best(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	var req bestCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	result, err := h.Svc.Best(r.Context(), req.User, req.Cart, req.EvaluateUsageImpact)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if result == nil {
		obs.ObserveSelection("none", 0)
		common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"bestCoupon": nil}})
		return
	}
	obs.ObserveSelection("winner", result.ComputedDiscount)
	data := map[string]any{
		"bestCoupon":       result.Coupon,
		"computedDiscount": result.ComputedDiscount,
	}
	if req.EvaluateUsageImpact {
		data["projectedUsageForUser"] = result.ProjectedUsageForUser
		data["usageLimitPerUser"] = result.UsageLimitPerUser
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": data})
}

// Apply handles POST /api/v1/coupons/{code}/apply.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "userId is required", nil)
		return
	}
	result, err := h.Svc.Apply(r.Context(), code, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			obs.CountApply("not_found")
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
		case errors.Is(err, ErrUsageLimitReached):
			obs.CountApply("limit_reached")
			common.JSONError(w, http.StatusTooManyRequests, "USAGE_LIMIT_REACHED", "usage limit reached for this user", nil)
		default:
			obs.CountApply("error")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to apply coupon", nil)
		}
		return
	}
	obs.CountApply("ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

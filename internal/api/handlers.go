package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tax/internal/common"
	"github.com/noah-isme/backend-tax/internal/estimate"
	"github.com/noah-isme/backend-tax/internal/rating"
	"github.com/noah-isme/backend-tax/internal/store"
	"github.com/noah-isme/backend-tax/internal/tax"
)

var validate = validator.New()

// Handler exposes the tax calculation HTTP surface. ShippingSKU is the code
// assigned to shipping components that arrive without one.
type Handler struct {
	Calc        *tax.Calculator
	Est         *estimate.Estimator
	Store       *store.Store
	ShippingSKU string
	Logger      zerolog.Logger
}

// Quote rates a basket and returns per-line tax breakdowns. Quotes are
// tolerant by default: when the rating service is unreachable the response
// carries zero tax with taxKnown=false instead of an error.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(&req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	in, err := req.toApplyInput(h.ShippingSKU)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_SHIPPING", err.Error(), nil)
		return
	}

	resp, err := h.apply(r, &req, in)
	if err != nil {
		h.writeTaxError(w, err)
		return
	}

	out := QuoteResponse{
		QuoteID:  uuid.NewString(),
		TaxKnown: resp != nil,
		TotalTax: decimal.Zero,
	}
	if resp != nil {
		out.TransactionID = resp.TransactionID
	}
	for _, line := range in.Lines {
		q := lineQuote(line.ID, line.Price)
		out.Lines = append(out.Lines, q)
		out.TotalTax = out.TotalTax.Add(q.Tax.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if in.ShippingCharge != nil {
		for _, comp := range in.ShippingCharge.Components() {
			q := lineQuote(comp.LineID(), comp.Price)
			out.Shipping = append(out.Shipping, q)
			out.TotalTax = out.TotalTax.Add(q.Tax)
		}
	}

	common.JSON(w, http.StatusOK, out)
}

// ApplyOrder rates an order in strict mode and persists the taxation
// snapshot. Unlike quotes, order taxation must not silently degrade.
func (h *Handler) ApplyOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(&req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	req.Strict = true
	in, err := req.toApplyInput(h.ShippingSKU)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_SHIPPING", err.Error(), nil)
		return
	}

	resp, err := h.Calc.ApplyTaxes(r.Context(), in)
	if err != nil {
		h.writeTaxError(w, err)
		return
	}

	if h.Store != nil && resp != nil {
		if err := h.Store.SaveOrderTaxation(r.Context(), orderID, resp); err != nil {
			h.Logger.Error().Err(err).Str("order_id", orderID).Msg("save_order_taxation_failed")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to persist taxation", nil)
			return
		}
	}

	out := QuoteResponse{
		QuoteID:  orderID,
		TaxKnown: resp != nil,
		TotalTax: decimal.Zero,
	}
	if resp != nil {
		out.TransactionID = resp.TransactionID
		out.TotalTax = resp.TotalTaxApplied
	}
	for _, line := range in.Lines {
		out.Lines = append(out.Lines, lineQuote(line.ID, line.Price))
	}
	if in.ShippingCharge != nil {
		for _, comp := range in.ShippingCharge.Components() {
			out.Shipping = append(out.Shipping, lineQuote(comp.LineID(), comp.Price))
		}
	}

	common.JSON(w, http.StatusOK, out)
}

// GetOrderTaxation returns the stored taxation snapshot for an order.
func (h *Handler) GetOrderTaxation(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "taxation storage disabled", nil)
		return
	}
	orderID := chi.URLParam(r, "orderID")
	record, err := h.Store.GetOrderTaxation(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "no taxation recorded for order", nil)
			return
		}
		h.Logger.Error().Err(err).Str("order_id", orderID).Msg("load_order_taxation_failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load taxation", nil)
		return
	}
	common.JSON(w, http.StatusOK, record)
}

func (h *Handler) apply(r *http.Request, req *QuoteRequest, in tax.ApplyInput) (*rating.Response, error) {
	if h.Est != nil && req.BasketID != "" {
		key := estimate.Key(req.BasketID, req.Version, in.Destination)
		return h.Est.Estimate(r.Context(), key, in)
	}
	return h.Calc.ApplyTaxes(r.Context(), in)
}

func (h *Handler) writeTaxError(w http.ResponseWriter, err error) {
	var reqErr *tax.RequestError
	var sysErr *tax.SystemError
	switch {
	case errors.As(err, &reqErr):
		common.JSONError(w, http.StatusUnprocessableEntity, "RATING_REJECTED", reqErr.Error(), nil)
	case errors.As(err, &sysErr):
		common.JSONError(w, http.StatusBadGateway, "RATING_FAILED", sysErr.Error(), nil)
	case errors.Is(err, tax.ErrServiceUnavailable):
		common.JSONError(w, http.StatusServiceUnavailable, "RATING_UNAVAILABLE", "rating service unavailable", nil)
	case errors.Is(err, tax.ErrMiscalculation):
		h.Logger.Error().Err(err).Msg("taxation_miscalculation")
		common.JSONError(w, http.StatusBadGateway, "TAX_MISCALCULATION", err.Error(), nil)
	default:
		h.Logger.Error().Err(err).Msg("tax_apply_failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "tax calculation failed", nil)
	}
}

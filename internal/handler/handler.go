// Package handler exposes the catalog, coupon and order services over HTTP.
package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/apperr"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/coupon"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/order"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/product"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the REST API.
type Handler struct {
	products *product.Service
	coupons  *coupon.Service
	orders   *order.Service
}

// NewHandler constructs a Handler with the required domain services.
func NewHandler(products *product.Service, coupons *coupon.Service, orders *order.Service) *Handler {
	return &Handler{products: products, coupons: coupons, orders: orders}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", h.ListProducts)
	mux.HandleFunc("POST /products", h.CreateProduct)
	mux.HandleFunc("GET /products/{productId}", h.GetProduct)
	mux.HandleFunc("PUT /products/{productId}", h.ReplaceProduct)
	mux.HandleFunc("PATCH /products/{productId}", h.PatchProduct)
	mux.HandleFunc("DELETE /products/{productId}", h.DeleteProduct)

	mux.HandleFunc("GET /categories", h.ListCategories)
	mux.HandleFunc("POST /categories", h.CreateCategory)
	mux.HandleFunc("DELETE /categories/{categoryId}", h.DeleteCategory)

	mux.HandleFunc("GET /coupons", h.ListCoupons)
	mux.HandleFunc("POST /coupons", h.CreateCoupon)
	mux.HandleFunc("POST /coupons/validate/{code}", h.ValidateCoupon)
	mux.HandleFunc("GET /coupons/{couponId}", h.GetCoupon)
	mux.HandleFunc("PUT /coupons/{couponId}", h.UpdateCoupon)
	mux.HandleFunc("DELETE /coupons/{couponId}", h.DeactivateCoupon)

	mux.HandleFunc("GET /orders", h.ListOrders)
	mux.HandleFunc("POST /orders", h.CreateOrder)
	mux.HandleFunc("GET /orders/{orderId}", h.GetOrder)
	mux.HandleFunc("PUT /orders/{orderId}", h.UpdateOrder)
	mux.HandleFunc("DELETE /orders/{orderId}", h.DeleteOrder)
}

type encoder interface {
	Encode(e *jx.Encoder)
}

func writeJSON(w http.ResponseWriter, status int, v encoder) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	v.Encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.Obj(func(e *jx.Encoder) {
		e.Field("error", func(e *jx.Encoder) { e.Str(msg) })
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// status maps an error kind to its HTTP status.
func status(k apperr.Kind) int {
	switch k {
	case apperr.Validation, apperr.BusinessRule:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with the status of its kind. Internal errors are logged
// and answered with a generic message.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	failAs(w, r, err, status(apperr.KindOf(err)))
}

// failAs writes err with code unless it is internal.
func failAs(w http.ResponseWriter, r *http.Request, err error, code int) {
	if apperr.KindOf(err) == apperr.Internal {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeError(w, code, err.Error())
}

// decodeBody reads the request body and passes it to decode. Malformed JSON
// is reported as a validation error.
func decodeBody(r *http.Request, decode func(d *jx.Decoder) error) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if len(body) == 0 {
		return apperr.Invalidf("request body is required")
	}
	if err := decode(jx.DecodeBytes(body)); err != nil {
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		return apperr.Invalidf("invalid request body: %s", err)
	}
	return nil
}

// pathID parses the int64 path value name.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalidf("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/conejoswing/restoeasy/internal/domain/auth"
	"github.com/conejoswing/restoeasy/internal/domain/channel"
	"github.com/conejoswing/restoeasy/internal/domain/ledger"
	"github.com/conejoswing/restoeasy/internal/domain/menu"
	"github.com/conejoswing/restoeasy/internal/domain/order"
	"github.com/conejoswing/restoeasy/internal/domain/payment"
)

var (
	errNotFound         = errors.New("not found")
	errMethodNotAllowed = errors.New("method not allowed")
)

// badRequestError reports malformed input: an unparsable body, path or query.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// apiError is the JSON body of every error response.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps domain errors to an HTTP status and error code. Unknown
// errors are internal.
func classify(err error) (int, string) {
	var (
		badReq    *badRequestError
		pending   *order.PendingNotFoundError
		unknownMd *order.UnknownModificationError
		unknownPm *payment.UnknownMethodError
		mismatch  *payment.TotalMismatchError
	)
	switch {
	case errors.As(err, &badReq):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, errNotFound),
		errors.Is(err, channel.ErrUnknownChannel),
		errors.Is(err, order.ErrLineNotFound),
		errors.As(err, &pending):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	case errors.Is(err, order.ErrInvalidDeliveryInfo),
		errors.Is(err, payment.ErrMethodRequired),
		errors.As(err, &unknownPm),
		errors.Is(err, ledger.ErrInvalidAdjustment):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, menu.ErrNotFound),
		errors.Is(err, menu.ErrInvalidPrice),
		errors.As(err, &unknownMd):
		return http.StatusUnprocessableEntity, "unprocessable"
	case errors.Is(err, order.ErrEmptyOrder):
		return http.StatusConflict, "empty_order"
	case errors.Is(err, order.ErrDeliveryInfoRequired):
		return http.StatusConflict, "delivery_info_required"
	case errors.Is(err, channel.ErrNotDelivery):
		return http.StatusConflict, "not_delivery"
	case errors.As(err, &mismatch):
		return http.StatusConflict, "total_mismatch"
	case errors.Is(err, payment.ErrAlreadyConfirmed):
		return http.StatusConflict, "already_confirmed"
	case errors.Is(err, order.ErrNumbersExhausted):
		return http.StatusServiceUnavailable, "numbers_exhausted"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, status, apiError{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already written; a failed encode means the client left.
	_ = json.NewEncoder(w).Encode(v)
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

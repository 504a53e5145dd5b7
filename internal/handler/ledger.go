package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/conejoswing/restoeasy/internal/domain/ledger"
	"github.com/conejoswing/restoeasy/internal/domain/payment"
)

type adjustmentRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
}

// dayRange parses the ?date=YYYY-MM-DD query parameter, defaulting to the
// current business day.
func (h *Handler) dayRange(r *http.Request) (time.Time, time.Time, error) {
	day := h.now().In(h.loc)
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.ParseInLocation(time.DateOnly, raw, h.loc)
		if err != nil {
			return time.Time{}, time.Time{}, badRequest("invalid date %q", raw)
		}
		day = d
	}
	from, to := ledger.DayBounds(day, h.loc)
	return from, to, nil
}

// listLedger returns movements in [from, to) given as RFC 3339 timestamps,
// or the movements of ?date when no range is given.
func (h *Handler) listLedger(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.dayRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			writeError(w, r, badRequest("invalid from %q", raw))
			return
		}
	}
	if raw := q.Get("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			writeError(w, r, badRequest("invalid to %q", raw))
			return
		}
	}
	if !from.Before(to) {
		writeError(w, r, badRequest("from must be before to"))
		return
	}

	movements, err := h.ledger.List(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if movements == nil {
		movements = []ledger.Movement{}
	}
	writeJSON(w, http.StatusOK, movements)
}

func (h *Handler) closing(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.dayRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := ledger.Close(r.Context(), h.ledger, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) addAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	adj := ledger.Adjustment{Description: req.Description, Amount: req.Amount, Method: req.Method}
	if err := adj.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	// The method is optional, but when given it must be one the closing knows.
	if req.Method != "" {
		method, err := payment.ParseMethod(req.Method)
		if err != nil {
			writeError(w, r, err)
			return
		}
		adj.Method = string(method)
	}
	m := adj.Movement(h.newID(), h.now())
	if err := h.ledger.Append(r.Context(), m); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/conejoswing/restoeasy/internal/domain/channel"
	"github.com/conejoswing/restoeasy/internal/domain/order"
	"github.com/conejoswing/restoeasy/internal/domain/payment"
)

type addItemRequest struct {
	MenuItemID    int      `json:"menu_item_id"`
	Modifications []string `json:"modifications"`
	Observation   string   `json:"observation"`
}

type changeQuantityRequest struct {
	Delta int `json:"delta"`
}

type commitRequest struct {
	Observation string `json:"observation"`
}

type customerCopyRequest struct {
	IncludeTip bool `json:"include_tip"`
}

type settleRequest struct {
	Method payment.Method  `json:"method"`
	Total  decimal.Decimal `json:"total"`
}

type paymentQuote struct {
	Number      int              `json:"number"`
	Channel     string           `json:"channel"`
	State       string           `json:"state"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	DeliveryFee decimal.Decimal  `json:"delivery_fee"`
	Tip         decimal.Decimal  `json:"tip"`
	Total       decimal.Decimal  `json:"total"`
	Methods     []payment.Method `json:"methods"`
}

func (h *Handler) controller(r *http.Request) (*channel.Controller, error) {
	return h.channels.Get(r.Context(), chi.URLParam(r, "channelID"))
}

func pendingNumber(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "number")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > order.MaxOrderNumber {
		return 0, badRequest("invalid order number %q", raw)
	}
	return n, nil
}

// withPending resolves the channel controller and the order number.
func (h *Handler) withPending(w http.ResponseWriter, r *http.Request, fn func(c *channel.Controller, n int)) {
	c, err := h.controller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := pendingNumber(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fn(c, n)
}

func (h *Handler) listChannels(w http.ResponseWriter, r *http.Request) {
	list, err := h.channels.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getChannel(w http.ResponseWriter, r *http.Request) {
	c, err := h.controller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.controller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	line, err := c.AddItem(r.Context(), req.MenuItemID, req.Modifications, req.Observation)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (h *Handler) changeQuantity(w http.ResponseWriter, r *http.Request) {
	c, err := h.controller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req changeQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	line, err := c.ChangeQuantity(r.Context(), chi.URLParam(r, "lineID"), req.Delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.controller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.RemoveItem(r.Context(), chi.URLParam(r, "lineID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) discardCurrent(w http.ResponseWriter, r *http.Request) {
	c, err := h.controller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.DiscardCurrent(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setDelivery(w http.ResponseWriter, r *http.Request) {
	c, err := h.controller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req order.DeliveryInfo
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.SetDelivery(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	c, err := h.controller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req commitRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	ctx, span := h.tracer.Start(r.Context(), "channel.Commit",
		trace.WithAttributes(attribute.String("channel.id", c.ID())),
	)
	defer span.End()

	g, err := c.Commit(ctx, req.Observation)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeError(w, r, err)
		return
	}
	span.SetAttributes(attribute.Int("order.number", g.Number))
	writeJSON(w, http.StatusCreated, g)
}

func (h *Handler) reprintKitchenTicket(w http.ResponseWriter, r *http.Request) {
	h.withPending(w, r, func(c *channel.Controller, n int) {
		if err := c.ReprintKitchenTicket(r.Context(), n); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (h *Handler) printCustomerCopy(w http.ResponseWriter, r *http.Request) {
	h.withPending(w, r, func(c *channel.Controller, n int) {
		var req customerCopyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		g, err := c.PrintCustomerCopy(r.Context(), n, req.IncludeTip)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	})
}

func (h *Handler) quotePayment(w http.ResponseWriter, r *http.Request) {
	h.withPending(w, r, func(c *channel.Controller, n int) {
		st, err := c.OpenPayment(r.Context(), n)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, paymentQuote{
			Number:      st.Group.Number,
			Channel:     st.Channel.Label,
			State:       st.State.String(),
			Subtotal:    st.Subtotal,
			DeliveryFee: st.DeliveryFee,
			Tip:         st.Tip,
			Total:       st.Total,
			Methods:     payment.Methods,
		})
	})
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	h.withPending(w, r, func(c *channel.Controller, n int) {
		var req settleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		ctx, span := h.tracer.Start(r.Context(), "channel.Settle", trace.WithAttributes(
			attribute.String("channel.id", c.ID()),
			attribute.Int("order.number", n),
			attribute.String("payment.method", string(req.Method)),
		))
		defer span.End()

		res, err := c.Settle(ctx, n, req.Method, req.Total)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeError(w, r, err)
			return
		}
		span.SetAttributes(attribute.Int("inventory.advisories", len(res.Advisories)))
		writeJSON(w, http.StatusOK, res)
	})
}

func (h *Handler) deletePending(w http.ResponseWriter, r *http.Request) {
	h.withPending(w, r, func(c *channel.Controller, n int) {
		if err := c.DeletePending(r.Context(), n); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

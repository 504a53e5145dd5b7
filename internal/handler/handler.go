// Package handler exposes the POS operations over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/conejoswing/restoeasy/internal/domain/auth"
	"github.com/conejoswing/restoeasy/internal/domain/channel"
	"github.com/conejoswing/restoeasy/internal/domain/inventory"
	"github.com/conejoswing/restoeasy/internal/domain/ledger"
	"github.com/conejoswing/restoeasy/internal/domain/menu"
	"github.com/conejoswing/restoeasy/pkg/httpmiddleware"
)

// HeaderAPIKey carries the staff API key.
const HeaderAPIKey = "X-API-Key"

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// Location is the restaurant's time zone; it defines business days for
	// the ledger endpoints. Defaults to time.Local.
	Location *time.Location
	// KeepAlive is the interval of comment lines on the event stream.
	KeepAlive time.Duration
}

// Handler serves the POS API.
type Handler struct {
	channels *channel.Registry
	catalog  *menu.Catalog
	stock    *inventory.Stock
	ledger   ledger.Repository
	notifier channel.Notifier
	// auth is nil when authentication is disabled.
	auth   *auth.Authenticator
	tracer trace.Tracer

	loc       *time.Location
	keepAlive time.Duration
	now       func() time.Time
	newID     func() string
}

// New constructs a Handler. A nil authenticator disables authentication.
func New(
	cfg Config,
	channels *channel.Registry,
	catalog *menu.Catalog,
	stock *inventory.Stock,
	ledgerRepo ledger.Repository,
	notifier channel.Notifier,
	authenticator *auth.Authenticator,
	tracer trace.Tracer,
) *Handler {
	h := &Handler{
		channels:  channels,
		catalog:   catalog,
		stock:     stock,
		ledger:    ledgerRepo,
		notifier:  notifier,
		auth:      authenticator,
		tracer:    tracer,
		loc:       cfg.Location,
		keepAlive: cfg.KeepAlive,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.keepAlive <= 0 {
		h.keepAlive = 30 * time.Second
	}
	return h
}

// Routes returns the API router. Paths are relative to the /api mount point.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(httpmiddleware.LogRequests())
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errMethodNotAllowed)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireRole(auth.RoleWaiter))

		r.Get("/menu", h.listMenu)
		r.Get("/channels", h.listChannels)
		r.Get("/channels/events", h.streamEvents)

		r.Route("/channels/{channelID}", func(r chi.Router) {
			r.Get("/", h.getChannel)
			r.Post("/items", h.addItem)
			r.Delete("/items", h.discardCurrent)
			r.Patch("/items/{lineID}", h.changeQuantity)
			r.Delete("/items/{lineID}", h.removeItem)
			r.Put("/delivery", h.setDelivery)
			r.Post("/commit", h.commit)

			r.Route("/pending/{number}", func(r chi.Router) {
				r.Post("/kitchen-ticket", h.reprintKitchenTicket)
				r.Post("/customer-copy", h.printCustomerCopy)

				r.Group(func(r chi.Router) {
					r.Use(h.requireRole(auth.RoleCashier))
					r.Get("/payment", h.quotePayment)
					r.Post("/payment", h.settle)
					r.Delete("/", h.deletePending)
				})
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireRole(auth.RoleCashier))
		r.Get("/inventory", h.listInventory)
		r.Get("/ledger", h.listLedger)
		r.Get("/ledger/closing", h.closing)
	})

	r.With(h.requireRole(auth.RoleAdmin)).Post("/ledger/adjustments", h.addAdjustment)

	return r
}

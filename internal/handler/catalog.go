package handler

import "net/http"

func (h *Handler) listMenu(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Items())
}

func (h *Handler) listInventory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.stock.Snapshot())
}

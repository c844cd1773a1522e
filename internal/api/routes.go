// Package api exposes the engine over HTTP: list and item CRUD routed
// through the current persistence strategy, the authentication signal
// feed, and read-only diagnostics for external monitoring.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/N3z3d/prioris/internal/auth"
	"github.com/N3z3d/prioris/internal/model"
	"github.com/N3z3d/prioris/internal/persistence"
)

// Handler carries the engine references the routes dispatch to.
type Handler struct {
	manager *persistence.StrategyManager
	authCtx *auth.Context
	log     *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(manager *persistence.StrategyManager, authCtx *auth.Context, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, authCtx: authCtx, log: logger}
}

// Routes builds the chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/lists", h.getLists)
		r.Post("/lists", h.createList)
		r.Put("/lists/{id}", h.updateList)
		r.Delete("/lists/{id}", h.deleteList)

		r.Get("/lists/{id}/items", h.getItems)
		r.Post("/items", h.createItem)
		r.Put("/items/{id}", h.updateItem)
		r.Delete("/items/{id}", h.deleteItem)

		r.Post("/auth/state", h.setAuthState)

		r.Get("/diagnostics/sync", h.syncDiagnostics)
		r.Get("/diagnostics/strategy", h.strategyDiagnostics)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// --- Lists -------------------------------------------------------------------

func (h *Handler) getLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.manager.CurrentStrategy().GetAllLists(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if lists == nil {
		lists = []*model.List{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"lists": lists})
}

// createListRequest is the accepted POST /lists body. The id is
// server-assigned; clients send name, type, and description only.
type createListRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (h *Handler) createList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	t := model.ListType(req.Type)
	if req.Type == "" {
		t = model.TypeCustom
	}
	list := model.NewList(req.Name, t)
	list.Description = req.Description

	if err := h.manager.CurrentStrategy().SaveList(r.Context(), list); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, list)
}

func (h *Handler) updateList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var list model.List
	if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	// The id in the path wins; ids are immutable once assigned.
	list.ID = id
	list.Touch()

	if err := h.manager.CurrentStrategy().UpdateList(r.Context(), &list); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, &list)
}

func (h *Handler) deleteList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.manager.CurrentStrategy().DeleteList(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Items -------------------------------------------------------------------

func (h *Handler) getItems(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "id")
	items, err := h.manager.CurrentStrategy().GetItemsByListID(r.Context(), listID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if items == nil {
		items = []*model.Item{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type createItemRequest struct {
	Title  string `json:"title"`
	ListID string `json:"list_id"`
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	// The list-id must reference an existing list; that check belongs to
	// this caller layer, not the engine.
	strategy := h.manager.CurrentStrategy()
	lists, err := strategy.GetAllLists(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	known := false
	for _, l := range lists {
		if l.ID == req.ListID {
			known = true
			break
		}
	}
	if !known {
		http.Error(w, "list_id does not reference an existing list", http.StatusUnprocessableEntity)
		return
	}

	item := model.NewItem(req.Title, req.ListID)
	if err := strategy.SaveItem(r.Context(), item); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var item model.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	item.ID = id

	if err := h.manager.CurrentStrategy().UpdateItem(r.Context(), &item); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, &item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.manager.CurrentStrategy().DeleteItem(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Auth signal & diagnostics -----------------------------------------------

type authStateRequest struct {
	Authenticated bool `json:"authenticated"`
}

// setAuthState is the feed for the external auth component: it posts the
// session's authenticated flag whenever it changes.
func (h *Handler) setAuthState(w http.ResponseWriter, r *http.Request) {
	var req authStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	h.authCtx.UpdateAuthenticationState(req.Authenticated)
	h.writeJSON(w, http.StatusOK, h.authCtx.GetAuthContext())
}

func (h *Handler) syncDiagnostics(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.manager.Diagnostics().Sync)
}

func (h *Handler) strategyDiagnostics(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.manager.Diagnostics())
}

// --- helpers -----------------------------------------------------------------

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("encoding response", "error", err)
	}
}

// writeError maps engine errors to HTTP statuses: validation failures are
// the client's fault, everything else is a server-side persistence error.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var vErr *model.ValidationError
	if errors.As(err, &vErr) {
		http.Error(w, vErr.Error(), http.StatusUnprocessableEntity)
		return
	}

	var opErr *persistence.OpError
	if errors.As(err, &opErr) {
		h.log.Error("cloud operation failed", "op", opErr.Op, "id", opErr.ID, "error", opErr.Err)
		http.Error(w, opErr.Error(), http.StatusBadGateway)
		return
	}

	h.log.Error("persistence operation failed", "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

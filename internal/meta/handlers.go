package meta

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/golang/glog"

	"SharedBoard/internal/identity"
)

// Credentials resolves the caller of a request.
type Credentials func(req *http.Request) (identity.Identity, error)

type Handlers struct {
	store *Store
	auth  Credentials
}

func NewHandlers(store *Store, auth Credentials) *Handlers {
	return &Handlers{store: store, auth: auth}
}

func (h *Handlers) Routes(r chi.Router) {
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.rename)
		r.Delete("/{id}", h.delete)
	})
}

type nameRequest struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) get(w http.ResponseWriter, req *http.Request) {
	m, err := h.store.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// list returns the caller's documents, optionally filtered by ?q=.
func (h *Handlers) list(w http.ResponseWriter, req *http.Request) {
	user, ok := h.authenticated(w, req)
	if !ok {
		return
	}
	docs, err := h.store.List(req.Context(), user.UserID, req.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *Handlers) create(w http.ResponseWriter, req *http.Request) {
	user, ok := h.authenticated(w, req)
	if !ok {
		return
	}
	var body nameRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}
	m, err := h.store.Create(req.Context(), body.Name, user.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	glog.Infof("[META] %s created document %s", user.UserID, m.ID)
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handlers) rename(w http.ResponseWriter, req *http.Request) {
	user, ok := h.authenticated(w, req)
	if !ok {
		return
	}
	var body nameRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}
	m, err := h.store.Rename(req.Context(), chi.URLParam(req, "id"), body.Name, user.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) delete(w http.ResponseWriter, req *http.Request) {
	user, ok := h.authenticated(w, req)
	if !ok {
		return
	}
	id := chi.URLParam(req, "id")
	if err := h.store.Delete(req.Context(), id, user.UserID); err != nil {
		writeError(w, err)
		return
	}
	glog.Infof("[META] %s deleted document %s", user.UserID, id)
	w.WriteHeader(http.StatusNoContent)
}

// authenticated rejects guests; metadata changes need a real identity.
func (h *Handlers) authenticated(w http.ResponseWriter, req *http.Request) (identity.Identity, bool) {
	user, err := h.auth(req)
	if err != nil || user.Guest() {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return identity.Identity{}, false
	}
	return user, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		glog.Errorf("[META] %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

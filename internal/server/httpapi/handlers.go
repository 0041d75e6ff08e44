package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkaraca/dukkan/internal/server/documents"
	"github.com/mkaraca/dukkan/internal/server/tenants"
)

// documentWire is the JSON form of a document on the wire. Kind is carried
// by the URL, not the body.
type documentWire struct {
	ID             string          `json:"id"`
	BusinessID     string          `json:"businessId"`
	Data           json.RawMessage `json:"data"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	IsActive       bool            `json:"isActive"`
	LastModifiedBy string          `json:"lastModifiedBy"`
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "dukkan-store",
	})
}

func (a *API) registerTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login    string `json:"login"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Login == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "login and password are required")
		return
	}

	tenant, err := a.tenants.Register(r.Context(), req.Login, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, tenants.ErrLoginTaken) {
			respondError(w, http.StatusConflict, "login already taken")
			return
		}
		a.log.Error(r.Context(), "tenant registration failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": tenant.ID})
}

func (a *API) createSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := a.tenants.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, tenants.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		a.log.Error(r.Context(), "session creation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (a *API) putDocument(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !validKinds[kind] {
		respondError(w, http.StatusNotFound, "unknown collection")
		return
	}
	businessID, ok := businessIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing session")
		return
	}

	var wire documentWire
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if wire.BusinessID != "" && wire.BusinessID != businessID {
		respondError(w, http.StatusForbidden, "document belongs to another tenant")
		return
	}

	id := chi.URLParam(r, "id")
	if wire.ID != "" && wire.ID != id {
		respondError(w, http.StatusBadRequest, "body id does not match url")
		return
	}

	doc := &documents.Document{
		ID:             id,
		Kind:           kind,
		BusinessID:     businessID,
		Data:           wire.Data,
		CreatedAt:      wire.CreatedAt,
		UpdatedAt:      wire.UpdatedAt,
		IsActive:       wire.IsActive,
		LastModifiedBy: wire.LastModifiedBy,
	}

	if err := a.docs.Upsert(r.Context(), doc); err != nil {
		if errors.Is(err, documents.ErrTenantMismatch) {
			respondError(w, http.StatusForbidden, "document belongs to another tenant")
			return
		}
		a.log.Error(r.Context(), "document upsert failed", "kind", kind, "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteDocument(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !validKinds[kind] {
		respondError(w, http.StatusNotFound, "unknown collection")
		return
	}
	businessID, ok := businessIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing session")
		return
	}

	id := chi.URLParam(r, "id")
	if err := a.docs.Deactivate(r.Context(), kind, id, businessID, r.URL.Query().Get("deviceId")); err != nil {
		a.log.Error(r.Context(), "document deactivate failed", "kind", kind, "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listDocuments(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !validKinds[kind] {
		respondError(w, http.StatusNotFound, "unknown collection")
		return
	}
	businessID, ok := businessIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing session")
		return
	}

	docs, err := a.docs.ListActive(r.Context(), kind, businessID)
	if err != nil {
		a.log.Error(r.Context(), "document list failed", "kind", kind, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]documentWire, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentWire{
			ID:             d.ID,
			BusinessID:     d.BusinessID,
			Data:           d.Data,
			CreatedAt:      d.CreatedAt,
			UpdatedAt:      d.UpdatedAt,
			IsActive:       d.IsActive,
			LastModifiedBy: d.LastModifiedBy,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

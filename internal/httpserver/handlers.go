package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"modq/internal/domain"
	"modq/internal/service"
	"modq/internal/store"
)

// API exposes the moderation workflow to the presentation layer. Every
// mutation responds with the updated submission list so the caller can
// re-render without a second round trip.
type API struct {
	Svc *service.Moderation
}

func (a *API) Register(mux *mux.Router) {
	mux.HandleFunc("/v1/submissions", a.handleList).Methods(http.MethodGet)
	mux.HandleFunc("/v1/submissions/batch", a.handleBatch).Methods(http.MethodPost)
	mux.HandleFunc("/v1/submissions/{id}/approve", a.single(a.Svc.Approve)).Methods(http.MethodPost)
	mux.HandleFunc("/v1/submissions/{id}/reject", a.single(a.Svc.Reject)).Methods(http.MethodPost)
	mux.HandleFunc("/v1/submissions/{id}/publish", a.single(a.Svc.Publish)).Methods(http.MethodPost)
	mux.HandleFunc("/v1/submissions/{id}/page", a.handleChangePage).Methods(http.MethodPost)
	mux.HandleFunc("/v1/submissions/{id}", a.handleGet).Methods(http.MethodGet)
	mux.HandleFunc("/v1/submissions/{id}", a.single(a.Svc.Delete)).Methods(http.MethodDelete)
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	sub, found, err := a.Svc.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, "get submission failed", err)
		return
	}
	if !found {
		http.Error(w, ErrNotFound, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sub)
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	subs, err := a.Svc.List(r.Context())
	if err != nil {
		writeStoreError(w, "list submissions failed", err)
		return
	}
	writeSubmissions(w, subs)
}

func (a *API) single(op func(ctx context.Context, id string) ([]domain.Submission, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if id == "" {
			http.Error(w, ErrMissingID, http.StatusBadRequest)
			return
		}
		subs, err := op(r.Context(), id)
		if err != nil {
			writeStoreError(w, "transition failed", err)
			return
		}
		writeSubmissions(w, subs)
	}
}

func (a *API) handleChangePage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	var body struct {
		PageKey string `json:"page_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	subs, err := a.Svc.ChangePage(r.Context(), id, body.PageKey)
	if err != nil {
		writeStoreError(w, "change page failed", err)
		return
	}
	writeSubmissions(w, subs)
}

func (a *API) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req domain.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	subs, err := a.Svc.Batch(r.Context(), req)
	if err != nil {
		writeStoreError(w, "batch action failed", err)
		return
	}
	writeSubmissions(w, subs)
}

func writeSubmissions(w http.ResponseWriter, subs []domain.Submission) {
	if subs == nil {
		subs = []domain.Submission{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(subs)
}

func writeStoreError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "err", err)
	switch {
	case errors.Is(err, store.ErrBusy):
		http.Error(w, ErrStoreBusy, http.StatusInternalServerError)
	default:
		http.Error(w, ErrStorage, http.StatusInternalServerError)
	}
}

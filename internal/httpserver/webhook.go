package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"modq/internal/domain"
	"modq/internal/extract"
	"modq/internal/observability"
	"modq/internal/service"
)

// Webhook is the intake boundary for the external form tool. The body is an
// arbitrary field bag (JSON or urlencoded); the target page selector rides in
// the "page" query parameter.
type Webhook struct {
	Svc *service.Moderation
}

func (wh *Webhook) Register(mux *mux.Router) {
	mux.HandleFunc("/webhook", wh.handleIntake).Methods(http.MethodPost)
}

func (wh *Webhook) handleIntake(w http.ResponseWriter, r *http.Request) {
	fields, err := extract.ParseBody(r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		observability.WebhookRequests.WithLabelValues("400").Inc()
		writeWebhook(w, http.StatusBadRequest, domain.WebhookResponse{Success: false, Error: ErrBadBody})
		return
	}

	sub, err := wh.Svc.Intake(r.Context(), fields, r.URL.Query().Get("page"), clientIP(r))
	if err != nil {
		if errors.Is(err, extract.ErrNoData) {
			observability.WebhookRequests.WithLabelValues("400").Inc()
			writeWebhook(w, http.StatusBadRequest, domain.WebhookResponse{Success: false, Error: err.Error()})
			return
		}
		slog.Error("webhook intake failed", "err", err)
		observability.WebhookRequests.WithLabelValues("500").Inc()
		writeWebhook(w, http.StatusInternalServerError, domain.WebhookResponse{Success: false, Error: ErrStorage})
		return
	}

	observability.WebhookRequests.WithLabelValues("200").Inc()
	writeWebhook(w, http.StatusOK, domain.WebhookResponse{
		Success: true,
		Message: "submission received",
		ID:      sub.ID,
	})
}

func writeWebhook(w http.ResponseWriter, status int, resp domain.WebhookResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// mock-graph is a stand-in for the external posting API, for local runs and
// manual testing of the publish flow. It accepts the page feed endpoint and
// answers with a fabricated post id or a configurable failure.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"

	"modq/internal/logging"
)

type config struct {
	Port        string  `envconfig:"PORT" default:"8081"`
	SuccessRate float64 `envconfig:"MOCK_SUCCESS_RATE" default:"1.0"`
	DelayMs     int     `envconfig:"MOCK_DELAY_MS" default:"0"`
	LogFormat   string  `envconfig:"LOG_FORMAT" default:"text"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

var postSeq atomic.Int64

func main() {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	logging.Init("mock-graph", cfg.LogFormat)

	r := mux.NewRouter()
	r.HandleFunc("/{pageID}/feed", func(w http.ResponseWriter, req *http.Request) {
		if cfg.DelayMs > 0 {
			time.Sleep(time.Duration(cfg.DelayMs) * time.Millisecond)
		}
		if err := req.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		pageID := mux.Vars(req)["pageID"]
		if req.PostForm.Get("access_token") == "" {
			writeGraphError(w, http.StatusBadRequest, "An access token is required to request this resource.", 104)
			return
		}
		if rand.Float64() >= cfg.SuccessRate {
			writeGraphError(w, http.StatusInternalServerError, "An unexpected error has occurred.", 1)
			return
		}
		id := fmt.Sprintf("%s_%d", pageID, postSeq.Add(1))
		slog.Info("post created", "page_id", pageID, "post_id", id, "message_len", len(req.PostForm.Get("message")))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
	}).Methods(http.MethodPost)

	slog.Info("mock graph listening", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("mock graph failed", "err", err)
	}
}

func writeGraphError(w http.ResponseWriter, status int, message string, code int) {
	var e graphError
	e.Error.Message = message
	e.Error.Type = "OAuthException"
	e.Error.Code = code
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(e)
}

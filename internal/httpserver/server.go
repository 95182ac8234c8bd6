package httpserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Server bundles the router with the middleware the binary serves. The
// request counter goes through Router.Use so routes are matched before the
// metrics middleware reads the path template.
type Server struct {
	Mux *mux.Router
}

func New(requests *prometheus.CounterVec) *Server {
	r := mux.NewRouter()
	if requests != nil {
		r.Use(Metrics(requests))
	}
	return &Server{Mux: r}
}

// Handler returns the serving chain: request logging around the routed mux.
func (s *Server) Handler() http.Handler {
	return Logging(s.Mux)
}

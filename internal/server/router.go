package server

import (
	"net/http"

	"github.com/eddist-go/bbs/internal/metrics"
)

type Router struct {
	server      *Server
	mux         *http.ServeMux
	middlewares []Middleware
}

type Middleware func(http.Handler) http.Handler

func NewRouter(srv *Server) *Router {
	r := &Router{
		server: srv,
		mux:    http.NewServeMux(),
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

func (r *Router) setupMiddleware() {
	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(MaxBodySizeMiddleware(r.server.cfg.Server.MaxBodySize))

	if r.server.cfg.Server.CORS.Enabled {
		r.Use(CORSMiddleware(r.server.cfg.Server.CORS))
	}
}

func (r *Router) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *Router) setupRoutes() {
	h := r.server.Handlers()

	r.mux.HandleFunc("GET /health", r.health)
	r.mux.HandleFunc("GET /health/live", r.liveness)
	r.mux.Handle("GET /metrics", metrics.Handler())

	r.mux.Handle("POST /test/bbs.cgi", r.server.writeLimiter.Middleware(http.HandlerFunc(h.WriteBBS)))
	r.mux.Handle("POST /auth-code", r.server.authCodeLimiter.Middleware(http.HandlerFunc(h.AuthCode)))
	r.mux.HandleFunc("GET /{board_key}/subject.txt", h.SubjectTxt)
	r.mux.HandleFunc("GET /{board_key}/dat/{thread_number}.dat", h.Dat)
	r.mux.HandleFunc("GET /{board_key}/thread/{thread_number}/stream", h.Stream)
}

func (r *Router) liveness(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	if err := r.server.db.Ping(req.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("db unreachable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(r.server.dbStats()))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(r.mux)

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	handler.ServeHTTP(w, req)
}

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/rubiojr/basket/pkg/realtime"
	"github.com/rubiojr/basket/pkg/search"
)

// Searcher runs searches. *search.Service satisfies it.
type Searcher interface {
	Search(ctx context.Context, q core.Query) (*search.Response, error)
	Recent(ctx context.Context, n int) ([]core.ProductRecord, error)
}

type Server struct {
	searcher    Searcher
	registry    *core.Registry
	hub         *realtime.Hub
	recentLimit int
	logger      *log.Logger
}

func NewServer(searcher Searcher, registry *core.Registry) *Server {
	return &Server{
		searcher:    searcher,
		registry:    registry,
		recentLimit: search.DefaultRecentLimit,
		logger:      log.ForService("api"),
	}
}

// SetHub enables the live feed.
func (s *Server) SetHub(hub *realtime.Hub) {
	s.hub = hub
}

// SetRecentLimit sets how many past searches the recent endpoints return.
func (s *Server) SetRecentLimit(n int) {
	if n > 0 {
		s.recentLimit = n
	}
}

// Handler returns the full API handler with CORS, request ids and gzip.
// Websocket upgrades bypass compression.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	gz := gzhttp.GzipHandler(mux)
	compressed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			mux.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})

	return RequestIDMiddleware(CorsMiddleware(compressed))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Success:      false,
		Error:        code,
		ErrorMessage: message,
	})
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

// RequestIDMiddleware tags each request with an X-Request-ID, reusing the
// client's when present.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestID returns the id assigned by RequestIDMiddleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

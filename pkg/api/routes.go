package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Paths kept for existing front-ends
	mux.HandleFunc("POST /search", s.HandleSearch)
	mux.HandleFunc("GET /get_past_results", s.HandleRecent)

	mux.HandleFunc("POST /api/search", s.HandleSearch)
	mux.HandleFunc("GET /api/search", s.HandleSearchQuery)
	mux.HandleFunc("GET /api/searches/recent", s.HandleRecent)
	mux.HandleFunc("GET /api/searches/live", s.HandleLive)
	mux.HandleFunc("GET /api/sources", s.HandleListSources)
	mux.HandleFunc("GET /health", s.HandleHealth)
}

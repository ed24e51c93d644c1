package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/search"
	"github.com/rubiojr/basket/pkg/version"
)

const maxRequestBody = 1 << 20

// HandleSearch answers a JSON search request.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body")
		return
	}

	s.runSearch(w, r, core.NewQuery(req.Query, req.Location, req.Pincode))
}

// HandleSearchQuery answers GET /api/search?q=...&location=...&pincode=...
func (s *Server) HandleSearchQuery(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, search.ParseQueryParams(r.URL.Query()))
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, q core.Query) {
	resp, err := s.searcher.Search(r.Context(), q)
	if err != nil {
		s.writeSearchError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SearchResponse{
		Success:  true,
		Results:  resp.Results,
		Query:    resp.Query.Text,
		Location: resp.Query.Location,
		Pincode:  resp.Query.Pincode,
		Source:   resp.Source,
	})
}

func (s *Server) writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrEmptyQuery):
		s.writeError(w, http.StatusBadRequest, CodeEmptyQuery, "Please enter a search term")
	case core.IsStoreError(err):
		s.logger.Errorf("[%s] search failed: %v", RequestID(r.Context()), err)
		s.writeError(w, http.StatusInternalServerError, CodeStoreFailure, "An error occurred while processing your request")
	default:
		s.logger.Errorf("[%s] search failed: %v", RequestID(r.Context()), err)
		s.writeError(w, http.StatusInternalServerError, CodeInternalError, "An error occurred while processing your request")
	}
}

// HandleRecent returns the products of the most recent searches.
func (s *Server) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit := search.ParseLimit(r.URL.Query(), s.recentLimit)

	products, err := s.searcher.Recent(r.Context(), limit)
	switch {
	case errors.Is(err, core.ErrNoResults):
		s.writeError(w, http.StatusNotFound, CodeNoResults, "No past results found")
		return
	case core.IsStoreError(err):
		s.logger.Errorf("[%s] loading past results: %v", RequestID(r.Context()), err)
		s.writeError(w, http.StatusInternalServerError, CodeStoreFailure, "Error loading past results")
		return
	case err != nil:
		s.logger.Errorf("[%s] loading past results: %v", RequestID(r.Context()), err)
		s.writeError(w, http.StatusInternalServerError, CodeInternalError, "Error loading past results")
		return
	}

	s.writeJSON(w, http.StatusOK, PastResultsResponse{
		Success: true,
		Results: core.Results{Matches: products},
		Count:   len(products),
	})
}

func (s *Server) HandleListSources(w http.ResponseWriter, r *http.Request) {
	sources := s.registry.Sources()
	infos := make([]SourceInfo, 0, len(sources))
	for _, src := range sources {
		infos = append(infos, SourceInfo{
			Name:             src.Name(),
			Type:             src.Type(),
			Platform:         src.Platform(),
			RequiresLocation: src.RequiresLocation(),
			Timeout:          src.Timeout().String(),
		})
	}

	s.writeJSON(w, http.StatusOK, ListSourcesResponse{
		Sources: infos,
		Count:   len(infos),
	})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}

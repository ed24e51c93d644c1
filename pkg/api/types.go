package api

import (
	"time"

	"github.com/rubiojr/basket/pkg/core"
)

// Machine-readable error codes.
const (
	CodeEmptyQuery     = "empty_query"
	CodeInvalidRequest = "invalid_request"
	CodeStoreFailure   = "store_failure"
	CodeInternalError  = "internal_error"
	CodeNoResults      = "no_results"
	CodeUnavailable    = "unavailable"
)

type SearchRequest struct {
	Query    string `json:"query"`
	Location string `json:"location"`
	Pincode  string `json:"pincode"`
}

type SearchResponse struct {
	Success  bool         `json:"success"`
	Results  core.Results `json:"results"`
	Query    string       `json:"query"`
	Location string       `json:"location"`
	Pincode  string       `json:"pincode"`
	Source   string       `json:"source"`
}

type PastResultsResponse struct {
	Success bool         `json:"success"`
	Results core.Results `json:"results"`
	Count   int          `json:"count"`
}

type ErrorResponse struct {
	Success      bool   `json:"success"`
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
}

type SourceInfo struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	Platform         string `json:"platform"`
	RequiresLocation bool   `json:"requires_location"`
	Timeout          string `json:"timeout"`
}

type ListSourcesResponse struct {
	Sources []SourceInfo `json:"sources"`
	Count   int          `json:"count"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// LiveInitMessage is the first message on a live feed connection.
type LiveInitMessage struct {
	Type    string               `json:"type"`
	Matches []core.ProductRecord `json:"matches"`
	Count   int                  `json:"count"`
}

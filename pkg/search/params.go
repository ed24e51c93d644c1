package search

import (
	"strconv"

	"github.com/rubiojr/basket/pkg/core"
)

// ParseQueryParams converts HTTP query parameters into a Query. Both "query"
// and the short "q" are accepted.
func ParseQueryParams(queryParams map[string][]string) core.Query {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v := queryParams[k]; len(v) > 0 && v[0] != "" {
				return v[0]
			}
		}
		return ""
	}
	return core.NewQuery(get("query", "q"), get("location"), get("pincode"))
}

// ParseLimit reads the "limit" parameter, returning def when it is missing
// or not a positive integer.
func ParseLimit(queryParams map[string][]string, def int) int {
	v := queryParams["limit"]
	if len(v) == 0 {
		return def
	}
	n, err := strconv.Atoi(v[0])
	if err != nil || n <= 0 {
		return def
	}
	return n
}

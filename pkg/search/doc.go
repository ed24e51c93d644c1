// Package search answers product searches for basket, reusing earlier
// results whenever a related query has already been run.
//
// # Overview
//
// A search moves through two states. CACHE_LOOKUP asks the result cache for
// stored searches related to the query; any hit is returned immediately and
// no source is contacted. On a miss, LIVE_FETCH fans the query out to every
// eligible source, narrows the merged products with the relevance filter,
// persists the outcome as a new SearchRecord and announces it to live
// listeners.
//
// Every returned product carries the query, location and pincode of the
// request that produced the response, including cached products, which are
// re-stamped with the current request values.
//
// # Usage
//
//	svc := search.NewService(cache, aggregator, filter,
//		search.WithPublisher(hub),
//	)
//	resp, err := svc.Search(ctx, core.NewQuery("milk", "Bangalore", "560001"))
//	if errors.Is(err, core.ErrEmptyQuery) {
//		// reject the request
//	}
//	fmt.Println(resp.Source, len(resp.Results.Matches))
//
// Recent searches, flattened to products:
//
//	products, err := svc.Recent(ctx, 10)
//
// # Errors
//
//   - core.ErrEmptyQuery: blank query, nothing was touched
//   - *core.StoreError: the result cache failed, in either state
//   - core.ErrNoResults: Recent found no stored searches
//
// Source failures and relevance failures never surface here; the aggregator
// and the filter absorb them.
package search

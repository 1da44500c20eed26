// Package feed implements the listing and detail streams behind the movie views.
//
// A [SearchFeed] turns debounced query input into page fetches: the popular listing when the query is empty,
// otherwise a parallel search across every supported locale merged by movie id. A [DetailFetcher] keeps the
// full record of a single movie. Both cancel superseded requests and never apply a response that arrives after
// it was superseded.
package feed

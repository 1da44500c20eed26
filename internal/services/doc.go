// Package services defines the [MovieService] interface for the movie metadata provider and implements it for TMDB.
//
// # TMDB Implementation
//
// [TMDBService] calls three v3 endpoints:
//   - GET /3/movie/popular : [MovieService.Popular]
//   - GET /3/search/movie : [MovieService.Search] (include_adult=false)
//   - GET /3/movie/{id} : [MovieService.Movie]
//
// Credentials are either a v3 api_key query parameter or a v4 read access token. The token is attached by an
// [oauth2.StaticTokenSource] client, so requests carry "Authorization: Bearer ...".
//
// Every request waits on a [rate.Limiter] before it is sent. A cancelled context aborts the wait or the
// in-flight request, and the returned error satisfies errors.Is(err, context.Canceled).
//
// # Response Cache
//
// [ResponseCache] stores 2xx bodies in a bolt database keyed by endpoint and query, excluding the api key. Hits skip
// both the limiter and the network. The cache is optional; a nil cache is a no-op.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : transport failure or non-2xx status ([StatusError] unwraps to it)
//   - [shared.ErrMovieNotFound] : 404 from the detail endpoint
//   - [shared.ErrInvalidInput] : empty search query
//
// # Raw Access
//
// [APIService] issues an arbitrary GET with the api key injected and returns the undecoded [APIResponse]. The CLI's
// "api get" command uses it for debugging.
package services

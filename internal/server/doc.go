// Package server provides HTTP routing, middleware and the JSON handlers of the local movie API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Chain] and [BasicRouter.Use] apply [Middleware] so the first one added runs outermost.
//
// The [BasicRouter] implementation registers "METHOD /path" patterns on an [http.ServeMux], which routes on
// method and wildcards such as /api/movies/{id} and answers other methods on a known path with 405.
//
// # API
//
// [API] registers the movie listing, movie detail, locale and account routes. [NewHandler] wraps the router
// with recovery, request logging and CORS, and [Server] runs it until its context is cancelled.
//
// Listings use the same locale fan-out as the terminal feed, so a search returns the merged results of every
// supported locale. Messages are localized from the locale query parameter or the Accept-Language header.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

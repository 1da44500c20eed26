// Package tasks runs rate-limited background work against the movie metadata service.
//
// [Prefetcher.CollectIDs] walks the popular listing and [Prefetcher.Warm] fetches each movie's detail record in
// every search locale through a worker pool, so a cache-backed service answers later requests locally.
// Progress is reported over a [ProgressUpdate] channel that never blocks the run.
package tasks

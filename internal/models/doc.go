// Package models defines the value types that flow between the movie metadata client, the feed and the account layer.
//
// [Movie] and [MoviePage] mirror the metadata API's JSON. [User] is the persisted account row and [Profile] the
// normalized "current user" record, tagged with the provider it was hydrated from ([ProviderAuth] or [ProviderLocal]).
package models

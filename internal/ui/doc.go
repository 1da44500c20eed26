// Package ui implements the interactive terminal browser using bubbletea's Elm architecture.
//
// The TUI has four views:
//  1. [FeedView] : search input above the movie list, with infinite scroll
//  2. [DetailView] : a glamour-rendered card for the selected movie
//  3. [LoginView] : user id and password form
//  4. [SignUpView] : account creation form
//
// The language popover opens over any view with L (or ctrl+l while typing).
//
// Feed and detail state lives in [feed.SearchFeed] and [feed.DetailFetcher]. Their snapshots are delivered to the
// program with [tea.Program.Send] and every message carries a sequence number so late snapshots are dropped.
package ui

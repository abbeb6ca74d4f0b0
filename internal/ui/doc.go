// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing snapshot history:
//  1. [HistoryListView] : Browse recorded snapshots, newest first
//  2. [DetailView] : Inspect a snapshot's aggregated statistics and top games
//  3. [ConfirmDeleteView] : Confirm removal of a snapshot record
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Snapshot documents are loaded lazily from disk when a record is opened, so the
// list stays responsive even with a long history.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

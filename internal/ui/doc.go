// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing the catalog:
//  1. [DatasetListView] : Browse registered datasets
//  2. [FrameListView] : Inspect a dataset's frames and their shapes
//  3. [JobListView] : Browse recorded pipeline runs
//  4. [TaskListView] : Inspect a job's tasks and their resource profiles
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via typed msg structs.
// Catalog reads run through unit of work scopes on the shared database, so the TUI never holds a transaction open between frames.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

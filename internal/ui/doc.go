// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [CategoryView] : Browse the selected creator's categories with watched counts
//  2. [GridView] : Page through a category's videos as a grid of cards
//  3. [ConfirmResetView] : Confirm clearing every watched flag
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Network calls run as commands; the watched state lives in a [progress.Tracker] and its notices
// reach the status line through a [StatusNotifier] channel, so a failed request never blocks input.
//
// Keyboard navigation uses vim-style bindings (h/j/k/l, n/p for pages, space to toggle, / to search,
// tab to switch creator, q to quit) with contextual help displayed via charmbracelet/bubbles/help.
package ui

// Package viz renders jump results in the terminal.
//
//   - [PlotTrajectory]: height and velocity charts via asciigraph
//   - [RenderSummary]: lipgloss panel with solver statistics, metrics and
//     regime transitions
//   - [Sparkline]: one-line overview of a series, used by sweep tables
//
// Colors come from a [Theme]; see [GetTheme] for the built-in schemes.
package viz

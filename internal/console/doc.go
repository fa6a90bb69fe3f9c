package console

// Package console renders user-facing terminal output: video summaries,
// live progress bars, and colored status lines. All rendering goes through
// a Printer so tests can capture output.

// Package queue persists analysis items in SQLite and exposes the
// lifecycle operations the workflow manager and API depend on. Items move
// through paired processing/completed statuses for each pipeline stage so
// that interrupted work can be rolled back to a known restart point.
package queue

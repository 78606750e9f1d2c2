// Package analytics turns an in-memory snapshot of detection events into the
// views the dashboard renders: filtered and sorted alert lists, ratio (pie)
// slices and trend (line/bar) series.
//
// Every function is pure. Callers pass an immutable snapshot and an explicit
// "today"; nothing here reads the clock, performs I/O or mutates its input,
// so the functions are safe to call concurrently on the same snapshot.
package analytics

// Package evloop implements the single cooperative event loop that every
// program run is driven on.
//
// # Execution Model
//
// A Loop owns a FIFO queue of callbacks and drains it on whichever goroutine
// calls RunUntilComplete. Callbacks therefore never run concurrently with one
// another, which is the property the rest of the runtime leans on: futures
// settle on the loop, completion callbacks fire on the loop, and shared
// bookkeeping inside those callbacks needs no locking of its own.
//
// Work may be scheduled from any goroutine. Blocking operations (RPCs, file
// IO) run on their own goroutines and hop back onto the loop by settling a
// Future, so the loop itself stays responsive.
//
// # Process-Current Loop
//
// The process carries at most one "current" loop, obtained with Acquire.
// Acquire is tolerant of being called when a loop already exists and simply
// returns it; a fresh loop is created and installed only when none is
// present. Tests that need isolation swap the current loop with SetCurrent.
//
// # Diagnostics
//
// The loop reports its own conditions (for example pending callbacks dropped
// at Close) through a dedicated logger whose severity threshold is
// independent from the host's. Raising that threshold with
// SetDiagnosticLevel silences expected shutdown noise without touching the
// run's primary diagnostics.
package evloop

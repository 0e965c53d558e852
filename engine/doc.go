// Package engine orchestrates vectorization and query jobs.
//
// The Orchestrator sequences each job through its stage state machine,
// calling the extraction, chunking, and embedding collaborators and writing
// results into the vector store. Progress-tracked calls return a Run: a
// lazy, caller-driven sequence where each Next performs one unit of pipeline
// work. Work happens as the sequence is consumed, never eagerly, and
// cancellation is checked cooperatively at stage entry.
//
// The batch path (IndexFiles) trades telemetry for throughput: files run
// concurrently on a worker pool with per-file failure isolation.
package engine

// Package vectorize turns local content into a searchable vector index.
//
// The engine accepts text, binary buffers, or remote references, runs them
// through a staged pipeline (extract, sanitize, chunk, embed, upsert), and
// stores the resulting vectors in an embedded BadgerDB index queried by
// brute-force cosine similarity. Jobs expose lazy, caller-driven progress
// runs; lifecycle and resource telemetry is published on an in-process
// event bus.
//
// Basic usage:
//
//	eng, err := vectorize.New("/var/lib/myapp/index")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Close()
//
//	run, err := eng.VectorizeWithProgress(ctx,
//		core.Input{Text: document, Name: "notes.md"},
//		engine.VectorizeOptions{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	for run.Next() {
//		fmt.Printf("%s %.0f%%\n", run.Event().Stage, run.Event().Progress*100)
//	}
//	result, err := run.Result()
package vectorize

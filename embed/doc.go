// Package embed defines the embedding backend abstraction.
//
// A Backend turns content segments of one modality into fixed-length vectors.
// Backends are selected from a Registry by an explicit modality lookup; the
// numeric contents of the vectors are entirely backend-defined.
//
// The openai subpackage implements the text backend against OpenAI-compatible
// APIs. The mock subpackage provides deterministic backends for every
// modality, used in tests.
package embed

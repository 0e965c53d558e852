// Copyright 2026 Cobalt Ash
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage defines the vector store abstraction.
//
// The VectorStore interface decouples the pipeline from the storage backend.
// The badger subpackage provides the durable implementation; consumers should
// depend only on the interface so alternative backends stay interchangeable.
//
// Similarity is pure cosine similarity, dot(a,b) / (|a|*|b|), computed by a
// full scan over the stored documents. There is no approximate index; the
// target workload is an in-process local index where correctness wins over
// scale.
//
// All implementations must be thread-safe: the store is a process-wide
// singleton shared by every in-flight job. Mutations are atomic at
// single-document granularity; a multi-document Upsert batch is atomic with
// respect to the dimension precheck but not mid-batch backend failures.
package storage

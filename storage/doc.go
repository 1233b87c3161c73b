// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package storage defines the persistence contract for documents and
// their chunks, plus the serialization helpers shared by backends.
//
// Two interchangeable backends implement DocumentStore: a SQLite
// backend (the default, a relational layout with one row per chunk)
// and a BadgerDB backend (a pure-Go embedded key-value store). Both
// rank similarity search results by exact cosine similarity over the
// stored vectors; callers observe the same semantics regardless of
// backend.
package storage

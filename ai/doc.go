// Copyright 2025 Poiesic Systems
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


// Package ai provides the embedding-service abstraction used by lexindex.
//
// The package defines the Embedder interface that the ingestion pipeline
// and the query-side searcher depend on, following the dependency
// inversion principle: business logic depends on the abstraction, never
// on a concrete client.
//
// # Implementation Packages
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles with no external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewEmbedder) return the ai.Embedder
// INTERFACE to enforce abstraction and prevent accidental coupling to a
// concrete client:
//
//	embedder, err := openai.NewEmbedder(config)  // returns ai.Embedder
//
// Test utility constructors (mock.NewMockEmbedder) return CONCRETE
// types to enable behavior injection and call-count assertions:
//
//	mockEmbed := mock.NewMockEmbedder()  // returns *mock.MockEmbedder
//	mockEmbed.EmbedTextsFunc = ...       // needs concrete type
//	count := mockEmbed.CallCount()       // test assertion
package ai

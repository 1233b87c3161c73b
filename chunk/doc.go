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

// Package chunk groups converted document segments into retrieval
// chunks with provenance metadata.
//
// The Builder accumulates consecutive segments until a soft character
// budget is reached, then emits a chunk and carries a configurable
// number of trailing segments into the next one as overlap. Section
// boundaries (when structure preservation is enabled) always force a
// chunk break so that no chunk spans two sections.
//
// Each chunk records the pages it draws from, the section it belongs
// to, the half-open range of source segments it covers, and derived
// counts (words, characters, citation markers) used for ranking and
// diagnostics downstream.
package chunk

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


// Package convert defines the document-conversion boundary.
//
// The ingestion pipeline consumes a Converter, never a concrete parser:
// the chunk builder only sees the ordered segment list a Converter
// produces. The convert/pdf subpackage provides the production PDF
// implementation; tests construct Converted values directly.
//
// The empty-vs-failed distinction is part of the contract: a document
// that parses but yields no text is a successful conversion with zero
// segments, while a parse failure is an error. Callers classify the
// former as an empty success and the latter as a document-level error.
package convert

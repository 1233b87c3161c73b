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

// Package ingestion orchestrates the per-document processing
// pipeline: convert the source file, build chunks, embed them in
// batches, and persist document and chunks in a single transaction.
//
// Documents are processed concurrently on a bounded worker pool. One
// document failing never aborts the run; each source yields exactly
// one ProcessingResult, in input order, and the Summary totals them.
package ingestion

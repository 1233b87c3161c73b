// Package sqlite is the default DocumentStore backend, a relational
// layout over the pure-Go modernc.org/sqlite driver: one row per
// document, one row per chunk with its embedding packed into a BLOB
// column. The whole database lives in a single file, so an index can
// be copied or backed up with cp.
package sqlite

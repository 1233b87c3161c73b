// Package manifest reads document manifests from Excel workbooks.
// The expected layout follows the source registry: column G holds each
// document's URL, either as a hyperlink or a plain cell value, and the
// remaining columns are carried along as provenance metadata keyed by
// column letter.
package manifest

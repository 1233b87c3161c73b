// Package embedding turns chunk text into vectors in fixed-size
// batches and enforces the dimension contract the storage layer
// depends on.
package embedding
